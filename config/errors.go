package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidRevenueStrategy indicates the revenue strategy name is not
	// recognized.
	ErrInvalidRevenueStrategy = errors.New("config: invalid revenue strategy (must be \"rounds\" or \"direct\")")

	// ErrInvalidCertIDScheme indicates the certificate id scheme name is
	// not recognized.
	ErrInvalidCertIDScheme = errors.New("config: invalid certificate id scheme (must be \"termshash\" or \"counter\")")

	// ErrEmptyAuthorityName indicates the authority domain name is empty.
	ErrEmptyAuthorityName = errors.New("config: authority name must not be empty")

	// ErrEmptyAuthorityVersion indicates the authority version is empty.
	ErrEmptyAuthorityVersion = errors.New("config: authority version must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigSyntax indicates the config file failed to parse.
	ErrInvalidConfigSyntax = errors.New("config: invalid configuration syntax")
)
