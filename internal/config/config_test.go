package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty directory so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t, "PORT", "SPREADSHEET_ID", "SERVICE_ACCOUNT_JSON", "OUTPUT_DOC_ID")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Source.Driver)
	assert.Equal(t, "gdoc", cfg.Output.Driver)
	assert.Equal(t, "overwrite", cfg.Output.Mode)
	assert.Equal(t, "exports", cfg.Output.Dir)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Google.RateLimit, 0.001)
	assert.InDelta(t, 3.0, cfg.Notion.RateLimit, 0.001)
	assert.InDelta(t, 0.5, cfg.Monitoring.FailureRateThreshold, 0.001)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, 10000, cfg.Retry.MaxBackoffMs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  driver: xlsx
  path: trips.xlsx
output:
  driver: file
  dir: out
store:
  driver: sqlite
  database_url: exports.db
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "xlsx", cfg.Source.Driver)
	assert.Equal(t, "trips.xlsx", cfg.Source.Path)
	assert.Equal(t, "file", cfg.Output.Driver)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "overwrite", cfg.Output.Mode)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("TRIPEXPORT_STORE_DRIVER", "postgres")
	t.Setenv("TRIPEXPORT_LOG_LEVEL", "warn")
	t.Setenv("TRIPEXPORT_NOTION_TOKEN", "ntn_secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "ntn_secret", cfg.Notion.Token)
}

func TestLoadBareEnvAliases(t *testing.T) {
	chdirTemp(t)
	clearEnv(t, "TRIPEXPORT_SERVER_PORT", "TRIPEXPORT_SOURCE_SPREADSHEET_ID",
		"TRIPEXPORT_GOOGLE_SERVICE_ACCOUNT_JSON", "TRIPEXPORT_OUTPUT_DOCUMENT_ID")

	t.Setenv("SPREADSHEET_ID", "sheet-1")
	t.Setenv("SERVICE_ACCOUNT_JSON", `{"client_email":"a@b"}`)
	t.Setenv("OUTPUT_DOC_ID", "doc-1")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", cfg.Source.SpreadsheetID)
	assert.Equal(t, `{"client_email":"a@b"}`, cfg.Google.ServiceAccountJSON)
	assert.Equal(t, "doc-1", cfg.Output.DocumentID)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrefixedEnvWinsOverAlias(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "3000")
	t.Setenv("TRIPEXPORT_SERVER_PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t, "TRIPEXPORT_OUTPUT_DRIVER")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRIPEXPORT_OUTPUT_DRIVER=notion\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "notion", cfg.Output.Driver)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("source: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation with the google source
// and Docs output.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Source.Driver = "google"
	cfg.Source.SpreadsheetID = "sheet-1"
	cfg.Google.ServiceAccountJSON = `{"client_email":"svc@example.iam.gserviceaccount.com"}`
	cfg.Output.Driver = "gdoc"
	cfg.Output.Mode = "overwrite"
	cfg.Output.DocumentID = "doc-1"
	cfg.Store.Driver = "none"
	cfg.Server.Port = 8080
	cfg.Log.Format = "json"
	cfg.Monitoring.FailureRateThreshold = 0.5
	cfg.Monitoring.LookbackWindowHours = 24
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown source", func(c *Config) { c.Source.Driver = "ftp" }, "Source.Driver"},
		{"missing spreadsheet", func(c *Config) { c.Source.SpreadsheetID = "" }, "SpreadsheetID"},
		{"xlsx without path", func(c *Config) { c.Source.Driver = "xlsx" }, "Source.Path"},
		{"unknown output", func(c *Config) { c.Output.Driver = "s3" }, "Output.Driver"},
		{"unknown mode", func(c *Config) { c.Output.Mode = "append" }, "Output.Mode"},
		{"missing document", func(c *Config) { c.Output.DocumentID = "" }, "DocumentID"},
		{"file without dir", func(c *Config) { c.Output.Driver = "file"; c.Output.Dir = "" }, "Output.Dir"},
		{"store without url", func(c *Config) { c.Store.Driver = "sqlite" }, "DatabaseURL"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "Port"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "Log.Format"},
		{"bad threshold", func(c *Config) { c.Monitoring.FailureRateThreshold = 1.5 }, "FailureRateThreshold"},
		{"bad webhook", func(c *Config) { c.Monitoring.WebhookURL = "not a url" }, "WebhookURL"},
		{"negative retries", func(c *Config) { c.Retry.MaxAttempts = -1 }, "MaxAttempts"},
		{"no google credentials", func(c *Config) { c.Google.ServiceAccountJSON = "" }, "service_account"},
		{"notion without token", func(c *Config) { c.Output.Driver = "notion" }, "notion.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_FileSourceNeedsNoGoogle(t *testing.T) {
	cfg := validDefaults()
	cfg.Source.Driver = "csv"
	cfg.Source.Path = "tables"
	cfg.Output.Driver = "file"
	cfg.Output.Dir = "out"
	cfg.Output.DocumentID = ""
	cfg.Google = GoogleConfig{}

	assert.NoError(t, cfg.Validate())
}

func TestServiceAccount(t *testing.T) {
	inline := GoogleConfig{ServiceAccountJSON: `{"a":1}`, ServiceAccountFile: "/nonexistent"}
	data, err := inline.ServiceAccount()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"b":2}`), 0o600))
	data, err = GoogleConfig{ServiceAccountFile: path}.ServiceAccount()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(data))

	_, err = GoogleConfig{ServiceAccountFile: "/nonexistent/sa.json"}.ServiceAccount()
	assert.Error(t, err)

	_, err = GoogleConfig{}.ServiceAccount()
	assert.Error(t, err)
}
