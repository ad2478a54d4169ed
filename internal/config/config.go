package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
// Durations are kept as strings so the YAML form stays readable; use the accessors.
type Config struct {
	Port           string   `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	DataDir        string   `mapstructure:"data_dir" yaml:"data_dir"`
	UploadDir      string   `mapstructure:"upload_dir" yaml:"upload_dir"`
	UsageLog       string   `mapstructure:"usage_log" yaml:"usage_log"`
	SamplePath     string   `mapstructure:"sample_path" yaml:"sample_path"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	SessionTTL   string `mapstructure:"session_ttl" yaml:"session_ttl"`
	SessionSweep string `mapstructure:"session_sweep" yaml:"session_sweep"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	PDFEnabled bool   `mapstructure:"pdf_enabled" yaml:"pdf_enabled"`
	PDFTimeout string `mapstructure:"pdf_timeout" yaml:"pdf_timeout"`
	ChromePath string `mapstructure:"chrome_path" yaml:"chrome_path"`

	// DBIngestEnabled turns on /ingest/db. Clients name one of DBSources;
	// they never supply a DSN.
	DBIngestEnabled bool                `mapstructure:"db_ingest_enabled" yaml:"db_ingest_enabled"`
	DBSources       map[string]DBSource `mapstructure:"db_sources" yaml:"db_sources"`

	sessionTTL   time.Duration
	sessionSweep time.Duration
	pdfTimeout   time.Duration
}

// DBSource is a named database that /ingest/db may read from.
// For sqlite the DSN is the path of an existing database file.
type DBSource struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	c := &Config{
		Port:           "8001",
		AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		DataDir:        "./data",
		SamplePath:     "sample_data/ide_sessions.csv",
		MaxUploadMB:    100,
		SessionTTL:     "30m",
		SessionSweep:   "1m",
		LogLevel:       "info",
		LogFormat:      "text",
		PDFEnabled:     true,
		PDFTimeout:     "30s",
		DBSources:      map[string]DBSource{},
	}
	_ = c.Validate()
	return c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AURA")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("data_dir", d.DataDir)
	// upload_dir and usage_log default to locations under data_dir
	_ = v.BindEnv("upload_dir")
	_ = v.BindEnv("usage_log")
	v.SetDefault("sample_path", d.SamplePath)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("session_sweep", d.SessionSweep)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("pdf_enabled", d.PDFEnabled)
	v.SetDefault("pdf_timeout", d.PDFTimeout)
	v.SetDefault("chrome_path", "")
	v.SetDefault("db_ingest_enabled", d.DBIngestEnabled)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("aura")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate parses the duration fields and checks the numeric limits.
// An empty upload_dir or usage_log is placed under data_dir.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.UsageLog == "" {
		c.UsageLog = filepath.Join(c.DataDir, "usage.jsonl")
	}

	var err error
	if c.sessionTTL, err = parsePositive("session_ttl", c.SessionTTL); err != nil {
		return err
	}
	if c.sessionSweep, err = parsePositive("session_sweep", c.SessionSweep); err != nil {
		return err
	}
	if c.pdfTimeout, err = parsePositive("pdf_timeout", c.PDFTimeout); err != nil {
		return err
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	for name, src := range c.DBSources {
		if src.Driver == "" || src.DSN == "" {
			return fmt.Errorf("db_sources.%s: driver and dsn are required", name)
		}
	}
	return nil
}

func parsePositive(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, s)
	}
	return d, nil
}

// SessionTTLDuration is the idle time after which a session is dropped.
func (c *Config) SessionTTLDuration() time.Duration { return c.sessionTTL }

// SessionSweepInterval is how often idle sessions are swept.
func (c *Config) SessionSweepInterval() time.Duration { return c.sessionSweep }

// PDFTimeoutDuration bounds a single PDF render.
func (c *Config) PDFTimeoutDuration() time.Duration { return c.pdfTimeout }

// MaxUploadBytes is the multipart size limit for /ingest.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Save writes the given configuration to path, creating the parent directory.
func Save(c *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
