package config

const (
	defaultDataDir             = "~/.local/share/lectern"
	defaultLogDir              = "~/.local/share/lectern/logs"
	defaultVideoBaseURL        = "https://api.bunny.net"
	defaultVideoStreamBaseURL  = "https://video.bunnycdn.com"
	defaultVideoRequestTimeout = 60
	defaultVideoPageSize       = 100
	defaultVideoRequestsPerSec = 8.0
	defaultSheetName           = "Videos"
	defaultNameColumn          = "N"
	defaultEmbedColumn         = "W"
	defaultSheetTimeout        = 30
	defaultYear                = "2025"
	defaultMaxConcurrent       = 1
	defaultRetryAttempts       = 3
	defaultRetryDelaySeconds   = 5
	defaultIdleTimeoutSeconds  = 90
	defaultConfidence          = 90
	defaultWebhookBind         = "127.0.0.1:8787"
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		VideoHost: VideoHost{
			BaseURL:        defaultVideoBaseURL,
			VideoBaseURL:   defaultVideoStreamBaseURL,
			RequestTimeout: defaultVideoRequestTimeout,
			PageSize:       defaultVideoPageSize,
			RequestsPerSec: defaultVideoRequestsPerSec,
		},
		Sheets: Sheets{
			SheetName:      defaultSheetName,
			NameColumn:     defaultNameColumn,
			EmbedColumn:    defaultEmbedColumn,
			RequestTimeout: defaultSheetTimeout,
		},
		Uploader: Uploader{
			Year:               defaultYear,
			MaxConcurrent:      defaultMaxConcurrent,
			RetryAttempts:      defaultRetryAttempts,
			RetryDelaySeconds:  defaultRetryDelaySeconds,
			IdleTimeoutSeconds: defaultIdleTimeoutSeconds,
		},
		Classify: Classify{
			ConfidenceThreshold: defaultConfidence,
		},
		Webhook: Webhook{
			Bind: defaultWebhookBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
