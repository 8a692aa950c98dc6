package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideoHost()
	c.normalizeSheets()
	c.normalizeUploader()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideoHost() {
	c.VideoHost.APIKey = strings.TrimSpace(c.VideoHost.APIKey)
	c.VideoHost.BaseURL = strings.TrimRight(strings.TrimSpace(c.VideoHost.BaseURL), "/")
	c.VideoHost.VideoBaseURL = strings.TrimRight(strings.TrimSpace(c.VideoHost.VideoBaseURL), "/")
	if c.VideoHost.BaseURL == "" {
		c.VideoHost.BaseURL = defaultVideoBaseURL
	}
	if c.VideoHost.VideoBaseURL == "" {
		c.VideoHost.VideoBaseURL = defaultVideoStreamBaseURL
	}
	if c.VideoHost.RequestTimeout <= 0 {
		c.VideoHost.RequestTimeout = defaultVideoRequestTimeout
	}
	if c.VideoHost.PageSize <= 0 {
		c.VideoHost.PageSize = defaultVideoPageSize
	}
	if c.VideoHost.RequestsPerSec <= 0 {
		c.VideoHost.RequestsPerSec = defaultVideoRequestsPerSec
	}
}

func (c *Config) normalizeSheets() {
	c.Sheets.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sheets.BaseURL), "/")
	c.Sheets.SpreadsheetID = strings.TrimSpace(c.Sheets.SpreadsheetID)
	c.Sheets.SheetName = strings.TrimSpace(c.Sheets.SheetName)
	c.Sheets.NameColumn = strings.ToUpper(strings.TrimSpace(c.Sheets.NameColumn))
	c.Sheets.EmbedColumn = strings.ToUpper(strings.TrimSpace(c.Sheets.EmbedColumn))
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = defaultSheetName
	}
	if c.Sheets.NameColumn == "" {
		c.Sheets.NameColumn = defaultNameColumn
	}
	if c.Sheets.EmbedColumn == "" {
		c.Sheets.EmbedColumn = defaultEmbedColumn
	}
	if c.Sheets.RequestTimeout <= 0 {
		c.Sheets.RequestTimeout = defaultSheetTimeout
	}
}

func (c *Config) normalizeUploader() {
	c.Uploader.Year = strings.TrimSpace(c.Uploader.Year)
	if c.Uploader.Year == "" {
		c.Uploader.Year = defaultYear
	}
	if c.Uploader.MaxConcurrent <= 0 {
		c.Uploader.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Uploader.RetryAttempts <= 0 {
		c.Uploader.RetryAttempts = defaultRetryAttempts
	}
	if c.Uploader.RetryDelaySeconds < 0 {
		c.Uploader.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.Uploader.IdleTimeoutSeconds <= 0 {
		c.Uploader.IdleTimeoutSeconds = defaultIdleTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
