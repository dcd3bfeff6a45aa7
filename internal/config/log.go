package config

// LogConfig controls the zap logger. An empty File logs to stdout only.
type LogConfig struct {
	Mode       string // "development" or "production"
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	AuditFile  string // where the broker consumer writes domain events
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Mode:       envStr("LOG_MODE", "production"),
		Level:      envStr("LOG_LEVEL", "info"),
		File:       envStr("LOG_FILE", ""),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 64),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 7),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 28),
		Compress:   envBool("LOG_COMPRESS", true),
		AuditFile:  envStr("AUDIT_LOG_FILE", "logs/audit.log"),
	}
}
