package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"lectern/internal/catalog"
	"lectern/internal/classify"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/sheets"
	"lectern/internal/uploader"
	"lectern/internal/videohost"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "lectern.log")},
		})
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openCatalog opens the library cache and refreshes it from the host when it
// is empty or when force is set.
func (c *commandContext) openCatalog(ctx context.Context, force bool) (*catalog.Store, []videohost.Library, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}

	libraries, err := store.Libraries(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if force || len(libraries) == 0 {
		client := videohost.NewClient(cfg, store, logger)
		libraries, err = store.Refresh(ctx, client)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("refresh catalog: %w", err)
		}
	}
	return store, libraries, nil
}

// buildScheduler wires the queue, host client, and scheduler for an upload
// run. The returned close function releases the catalog.
func (c *commandContext) buildScheduler(ctx context.Context) (*uploader.Scheduler, *queue.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	catalogStore, libraries, err := c.openCatalog(ctx, false)
	if err != nil {
		return nil, nil, nil, err
	}

	classifyLibraries := make([]classify.Library, 0, len(libraries))
	for _, library := range libraries {
		classifyLibraries = append(classifyLibraries, classify.Library{ID: library.ID, Name: library.Name})
	}

	host := videohost.NewClient(cfg, catalogStore, logger)
	store := queue.NewStore()
	sched := uploader.NewScheduler(cfg, store, host, logger)
	sched.SetLibraries(classifyLibraries)

	return sched, store, func() { _ = catalogStore.Close() }, nil
}

func (c *commandContext) sheetsClient() (*sheets.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	if cfg.Sheets.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets.spreadsheet_id is not configured")
	}
	return sheets.NewClient(cfg, logger), nil
}
