package config

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
)

// Validate checks value ranges. Load calls it automatically; call it again
// after overriding fields from flags.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0 (got %v)", c.Server.ShutdownTimeout)
	}
	if c.Server.CompressionLevel < 1 || c.Server.CompressionLevel > 9 {
		return fmt.Errorf("server.compression_level must be between 1 and 9 (got %d)", c.Server.CompressionLevel)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %v)", c.Auth.TokenTTL)
	}
	if c.Images.MaxDimension < 64 {
		return fmt.Errorf("images.max_dimension must be >= 64 (got %d)", c.Images.MaxDimension)
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be between 1 and 100 (got %d)", c.Images.Quality)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	if _, err := mail.ParseAddress(c.Admin.Email); err != nil {
		return fmt.Errorf("admin.email: %w", err)
	}
	return nil
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return level, nil
}
