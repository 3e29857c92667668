package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"RevenueStrategy", cfg.RevenueStrategy, "rounds"},
		{"CertIDScheme", cfg.CertIDScheme, "termshash"},
		{"AuthorityName", cfg.AuthorityName, "space-markets-lease-authority"},
		{"AuthorityVersion", cfg.AuthorityVersion, "1"},
		{"ContextID", cfg.ContextID, "main"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:          "/tmp/test-ledger",
		LogLevel:         "debug",
		LogFile:          "/tmp/ledger.log",
		RevenueStrategy:  "direct",
		CertIDScheme:     "counter",
		AuthorityName:    "test-authority",
		AuthorityVersion: "2",
		ContextID:        "test",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip: got %+v, want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigBadSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := os.WriteFile(path, []byte("this is { not hcl\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigSyntax) {
		t.Errorf("LoadConfig bad syntax: got %v, want ErrInvalidConfigSyntax", err)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# comment
loglevel = "debug"

revenue_strategy = "direct"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.RevenueStrategy != "direct" {
		t.Errorf("RevenueStrategy = %q, want %q", cfg.RevenueStrategy, "direct")
	}
	// Unset fields should retain defaults.
	if cfg.CertIDScheme != "termshash" {
		t.Errorf("CertIDScheme = %q, want default %q", cfg.CertIDScheme, "termshash")
	}
	if cfg.AuthorityName != "space-markets-lease-authority" {
		t.Errorf("AuthorityName = %q, want default", cfg.AuthorityName)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad_strategy",
			modify:  func(c *Config) { c.RevenueStrategy = "streaming" },
			wantErr: ErrInvalidRevenueStrategy,
		},
		{
			name:    "bad_scheme",
			modify:  func(c *Config) { c.CertIDScheme = "random" },
			wantErr: ErrInvalidCertIDScheme,
		},
		{
			name:    "empty_authority_name",
			modify:  func(c *Config) { c.AuthorityName = "" },
			wantErr: ErrEmptyAuthorityName,
		},
		{
			name:    "empty_authority_version",
			modify:  func(c *Config) { c.AuthorityVersion = "" },
			wantErr: ErrEmptyAuthorityVersion,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestValidateConfig_ValidVariants(t *testing.T) {
	for _, strategy := range []string{"rounds", "direct"} {
		cfg := DefaultConfig()
		cfg.RevenueStrategy = strategy
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with strategy %q: %v", strategy, err)
		}
	}
	for _, scheme := range []string{"termshash", "counter"} {
		cfg := DefaultConfig()
		cfg.CertIDScheme = scheme
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with scheme %q: %v", scheme, err)
		}
	}
}

// ---------------------------------------------------------------------------
// ConfigPath tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.space-markets")
	want := filepath.Join("/home/user/.space-markets", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestDefaultDataDirSuffix(t *testing.T) {
	if !strings.HasSuffix(DefaultDataDir(), ".space-markets") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", DefaultDataDir(), ".space-markets")
	}
}
