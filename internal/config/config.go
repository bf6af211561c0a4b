// Package config loads server configuration from YAML, the environment and defaults.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Images   ImagesConfig   `yaml:"images"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"                env:"OMARA_ADDR"                env-default:":8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"OMARA_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"OMARA_READ_TIMEOUT"        env-default:"30s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"OMARA_WRITE_TIMEOUT"       env-default:"60s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"OMARA_IDLE_TIMEOUT"        env-default:"120s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"OMARA_SHUTDOWN_TIMEOUT"    env-default:"5s"`
	CompressionLevel  int           `yaml:"compression_level"   env:"OMARA_COMPRESSION_LEVEL"   env-default:"5"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"OMARA_DB" env-default:"omara.sqlite3"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	TokenTTL     time.Duration `yaml:"token_ttl"     env:"OMARA_TOKEN_TTL"     env-default:"168h"`
	SecureCookie bool          `yaml:"secure_cookie" env:"OMARA_SECURE_COOKIE" env-default:"false"`
}

// ImagesConfig holds listing photo settings.
type ImagesConfig struct {
	MaxDimension int `yaml:"max_dimension" env:"OMARA_IMAGE_MAX_DIMENSION" env-default:"1024"`
	Quality      int `yaml:"quality"       env:"OMARA_IMAGE_QUALITY"       env-default:"85"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"OMARA_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"OMARA_LOG_FORMAT" env-default:"text"`
	File   string `yaml:"file"   env:"OMARA_LOG_FILE"`
}

// AdminConfig holds first-run bootstrap settings.
type AdminConfig struct {
	Email string `yaml:"email" env:"OMARA_ADMIN_EMAIL" env-default:"admin@omara.local"`
}
