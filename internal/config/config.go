package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
}

// SourceConfig selects where the Trips, Profile, Contacts and Payments
// tables are read from.
type SourceConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver" validate:"oneof=google xlsx csv"`
	SpreadsheetID string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id" validate:"required_if=Driver google"`
	// Path is the workbook file for xlsx or the directory of <table>.csv files.
	Path string `yaml:"path" mapstructure:"path" validate:"required_unless=Driver google"`
}

// GoogleConfig holds service-account credentials and API settings.
type GoogleConfig struct {
	ServiceAccountJSON string  `yaml:"service_account_json" mapstructure:"service_account_json"`
	ServiceAccountFile string  `yaml:"service_account_file" mapstructure:"service_account_file"`
	SheetsBaseURL      string  `yaml:"sheets_base_url" mapstructure:"sheets_base_url" validate:"omitempty,url"`
	DocsBaseURL        string  `yaml:"docs_base_url" mapstructure:"docs_base_url" validate:"omitempty,url"`
	RateLimit          float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// ServiceAccount returns the service-account key, preferring the inline JSON
// over the file.
func (g GoogleConfig) ServiceAccount() ([]byte, error) {
	if strings.TrimSpace(g.ServiceAccountJSON) != "" {
		return []byte(g.ServiceAccountJSON), nil
	}
	if g.ServiceAccountFile == "" {
		return nil, eris.New("config: google service account is not set")
	}
	data, err := os.ReadFile(g.ServiceAccountFile)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read service account %s", g.ServiceAccountFile)
	}
	return data, nil
}

func (g GoogleConfig) hasCredentials() bool {
	return strings.TrimSpace(g.ServiceAccountJSON) != "" || g.ServiceAccountFile != ""
}

// OutputConfig selects the document store exports are published to.
type OutputConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver" validate:"oneof=gdoc notion file"`
	Mode       string `yaml:"mode" mapstructure:"mode" validate:"oneof=overwrite create"`
	DocumentID string `yaml:"document_id" mapstructure:"document_id" validate:"required_unless=Driver file"`
	Dir        string `yaml:"dir" mapstructure:"dir" validate:"required_if=Driver file"`
}

// NotionConfig holds Notion API credentials.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// StoreConfig configures the export archive backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=none sqlite postgres"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" validate:"required_unless=Driver none"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns" validate:"gte=0"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns" validate:"gte=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// MonitoringConfig configures failure alerting over the export archive.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url" validate:"omitempty,url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold" validate:"gte=0,lte=1"`
	MinAttempts          int     `yaml:"min_attempts" mapstructure:"min_attempts" validate:"gte=0"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours" validate:"min=1"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs" validate:"gte=0"`
}

// RetryConfig bounds retries of transient Google and Notion failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" validate:"gte=0"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms" validate:"gte=0"`
}

// envAliases are the unprefixed variable names accepted alongside the
// TRIPEXPORT_ ones.
var envAliases = map[string]string{
	"source.spreadsheet_id":       "SPREADSHEET_ID",
	"google.service_account_json": "SERVICE_ACCOUNT_JSON",
	"output.document_id":          "OUTPUT_DOC_ID",
	"server.port":                 "PORT",
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIPEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := "TRIPEXPORT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults. Every key needs one so AutomaticEnv values reach Unmarshal.
	for _, key := range []string{
		"source.path",
		"google.service_account_file",
		"google.sheets_base_url",
		"google.docs_base_url",
		"notion.token",
		"store.database_url",
		"monitoring.webhook_url",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("source.driver", "google")
	v.SetDefault("output.driver", "gdoc")
	v.SetDefault("output.mode", "overwrite")
	v.SetDefault("output.dir", "exports")
	v.SetDefault("google.rate_limit", 5)
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("store.driver", "none")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_attempts", 5)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return eris.Errorf("config: %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return eris.Wrap(err, "config: validate")
	}
	if (c.Source.Driver == "google" || c.Output.Driver == "gdoc") && !c.Google.hasCredentials() {
		return eris.New("config: google.service_account_json or google.service_account_file is required")
	}
	if c.Output.Driver == "notion" && c.Notion.Token == "" {
		return eris.New("config: notion.token is required for the notion output")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
