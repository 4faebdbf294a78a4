package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Feeds     FeedsConfig     `yaml:"feeds" envconfig:"FEEDS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout" envconfig:"REFRESH_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"gte=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"gte=0"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// FeedsConfig describes where the works and expenses data sets come from
// and how often they are refreshed.
type FeedsConfig struct {
	Source          string        `yaml:"source" envconfig:"SOURCE" validate:"oneof=csv sheets"`
	WorksURL        string        `yaml:"works_url" envconfig:"WORKS_URL" validate:"omitempty,url"`
	ExpensesURL     string        `yaml:"expenses_url" envconfig:"EXPENSES_URL" validate:"omitempty,url"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" validate:"min=1s"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	FetchRPS        float64       `yaml:"fetch_rps" envconfig:"FETCH_RPS" validate:"gte=0"`
	FetchBurst      int           `yaml:"fetch_burst" envconfig:"FETCH_BURST" validate:"gte=0"`

	// Google Sheets API source
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	WorksRange      string `yaml:"works_range" envconfig:"WORKS_RANGE"`
	ExpensesRange   string `yaml:"expenses_range" envconfig:"EXPENSES_RANGE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
}

// ExportConfig controls spreadsheet and CSV exports
type ExportConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR"`
	WorkbookName string `yaml:"workbook_name" envconfig:"WORKBOOK_NAME" validate:"required"`
	CSVBOM       bool   `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// TelemetryConfig controls OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load loads configuration from defaults, the first config file found and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their default/file value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// validate validates the configuration
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	switch c.Feeds.Source {
	case SourceCSV:
		if c.Feeds.WorksURL == "" || c.Feeds.ExpensesURL == "" {
			return fmt.Errorf("csv source requires both works_url and expenses_url")
		}
	case SourceSheets:
		if c.Feeds.SpreadsheetID == "" {
			return fmt.Errorf("sheets source requires spreadsheet_id")
		}
		if c.Feeds.CredentialsFile == "" && c.Feeds.APIKey == "" {
			return fmt.Errorf("sheets source requires credentials_file or api_key")
		}
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file_path is required for output %q", c.Logging.Output)
	}

	if c.Server.RefreshTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("server refresh_timeout (%s) must be below write_timeout (%s)",
			c.Server.RefreshTimeout, c.Server.WriteTimeout)
	}

	if c.Feeds.FetchTimeout > c.Server.RefreshTimeout {
		return fmt.Errorf("feeds fetch_timeout (%s) exceeds server refresh_timeout (%s)",
			c.Feeds.FetchTimeout, c.Server.RefreshTimeout)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    35 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RefreshTimeout:  DefaultRefreshTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/ledgerpulse.log",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Feeds: FeedsConfig{
			Source:          SourceCSV,
			WorksURL:        DefaultWorksURL,
			ExpensesURL:     DefaultExpensesURL,
			RefreshInterval: DefaultRefreshInterval,
			FetchTimeout:    DefaultFetchTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			UserAgent:       AppName + "/" + AppVersion,
			FetchRPS:        DefaultFetchRPS,
			FetchBurst:      DefaultFetchBurst,
			WorksRange:      "Works",
			ExpensesRange:   "Expenses",
		},
		Export: ExportConfig{
			Dir:          "exports",
			WorkbookName: "ledgerpulse.xlsx",
			CSVBOM:       true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    ServiceName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
