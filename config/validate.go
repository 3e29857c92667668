package config

import "strings"

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.RevenueStrategy != "rounds" && cfg.RevenueStrategy != "direct" {
		return ErrInvalidRevenueStrategy
	}

	if cfg.CertIDScheme != "termshash" && cfg.CertIDScheme != "counter" {
		return ErrInvalidCertIDScheme
	}

	if cfg.AuthorityName == "" {
		return ErrEmptyAuthorityName
	}
	if cfg.AuthorityVersion == "" {
		return ErrEmptyAuthorityVersion
	}

	return nil
}
