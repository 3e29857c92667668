// Package config loads and validates the ledger's deployment settings:
// where state lives on disk, how the process logs, which certificate-id
// scheme the lease authority runs, and which revenue strategy settles
// accepted lease bids.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
)

// Config holds every deployment setting. Files are HCL, one `key = value`
// per line; unset keys keep their defaults.
type Config struct {
	DataDir  string `hcl:"datadir"`
	LogLevel string `hcl:"loglevel"`
	LogFile  string `hcl:"logfile"` // empty means stderr

	// RevenueStrategy picks how accepted lease escrow reaches owners:
	// "rounds" (snapshot claim rounds) or "direct" (immediate credit).
	RevenueStrategy string `hcl:"revenue_strategy"`

	// CertIDScheme picks certificate id assignment: "termshash" or
	// "counter".
	CertIDScheme string `hcl:"cert_id_scheme"`

	// Domain separation parameters of the lease authority. Certificates
	// minted under different parameters never share digests.
	AuthorityName    string `hcl:"authority_name"`
	AuthorityVersion string `hcl:"authority_version"`
	ContextID        string `hcl:"context_id"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         "info",
		RevenueStrategy:  "rounds",
		CertIDScheme:     "termshash",
		AuthorityName:    "space-markets-lease-authority",
		AuthorityVersion: "1",
		ContextID:        "main",
	}
}

// DefaultDataDir returns the per-user default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".space-markets"
	}
	return filepath.Join(home, ".space-markets")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads an HCL config file. Keys the file does not set keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := hcl.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfigSyntax, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in HCL form, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Space Markets Ledger Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %q\n", cfg.DataDir)
	fmt.Fprintf(&b, "loglevel = %q\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %q\n", cfg.LogFile)
	fmt.Fprintf(&b, "revenue_strategy = %q\n", cfg.RevenueStrategy)
	fmt.Fprintf(&b, "cert_id_scheme = %q\n", cfg.CertIDScheme)
	fmt.Fprintf(&b, "authority_name = %q\n", cfg.AuthorityName)
	fmt.Fprintf(&b, "authority_version = %q\n", cfg.AuthorityVersion)
	fmt.Fprintf(&b, "context_id = %q\n", cfg.ContextID)

	return os.WriteFile(path, []byte(b.String()), 0600)
}
