package config

import (
	"errors"
	"fmt"
	"regexp"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideoHost(); err != nil {
		return err
	}
	if err := c.validateUploader(); err != nil {
		return err
	}
	if err := c.validateClassify(); err != nil {
		return err
	}
	if err := c.validateSheets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideoHost() error {
	if c.VideoHost.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lectern/config.toml"
		}
		return fmt.Errorf("videohost.api_key is required. Edit %s (create with 'lectern config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateUploader() error {
	if !yearPattern.MatchString(c.Uploader.Year) {
		return fmt.Errorf("uploader.year must be a four-digit year, got %q", c.Uploader.Year)
	}
	if c.Uploader.MaxConcurrent < 1 {
		return errors.New("uploader.max_concurrent must be at least 1")
	}
	return nil
}

func (c *Config) validateClassify() error {
	if c.Classify.ConfidenceThreshold < 0 || c.Classify.ConfidenceThreshold > 100 {
		return errors.New("classify.confidence_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateSheets() error {
	if len(c.Sheets.NameColumn) != 1 || c.Sheets.NameColumn[0] < 'A' || c.Sheets.NameColumn[0] > 'Z' {
		return fmt.Errorf("sheets.name_column must be a single column letter, got %q", c.Sheets.NameColumn)
	}
	if len(c.Sheets.EmbedColumn) != 1 || c.Sheets.EmbedColumn[0] < 'A' || c.Sheets.EmbedColumn[0] > 'Z' {
		return fmt.Errorf("sheets.embed_column must be a single column letter, got %q", c.Sheets.EmbedColumn)
	}
	if c.Sheets.NameColumn == c.Sheets.EmbedColumn {
		return errors.New("sheets.name_column and sheets.embed_column must differ")
	}
	return nil
}
