package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProductionURL is the Express site used by default.
	ProductionURL = "https://express.fullcontour.com"
	// TestingURL is the staging Express site.
	TestingURL = "https://fcexpressfront-testing.azurewebsites.net"
)

// Config defines uploader configuration.
type Config struct {
	Express ExpressConfig `yaml:"express"`
	Orders  OrdersConfig  `yaml:"orders"`
	DB      DBConfig      `yaml:"db"`
	Log     LogConfig     `yaml:"log"`
}

type ExpressConfig struct {
	BaseURL          string        `yaml:"base_url"`
	UseTestingServer bool          `yaml:"use_testing_server"`
	UploadTimeout    time.Duration `yaml:"upload_timeout"`
}

type OrdersConfig struct {
	RootDir       string  `yaml:"root_dir"`
	LookbackHours float64 `yaml:"lookback_hours"`
	ReservedDir   string  `yaml:"reserved_dir"`
	Selection     string  `yaml:"selection"`
	AutoUpload    bool    `yaml:"auto_upload"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// URL returns the Express site to talk to. An explicit base URL wins over the
// testing-server switch.
func (c ExpressConfig) URL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.UseTestingServer {
		return TestingURL
	}
	return ProductionURL
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Express: ExpressConfig{
			UploadTimeout: 30 * time.Minute,
		},
		Orders: OrdersConfig{
			LookbackHours: 24,
			ReservedDir:   "ManufacturingDir",
			Selection:     "negotiated",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// path overrides EXPRESSUP_CONFIG_PATH when non-empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("EXPRESSUP_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if baseURL := os.Getenv("EXPRESSUP_BASE_URL"); baseURL != "" {
		cfg.Express.BaseURL = baseURL
	}
	if s := os.Getenv("EXPRESSUP_TESTING"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid EXPRESSUP_TESTING: %w", err)
		}
		cfg.Express.UseTestingServer = v
	}
	if s := os.Getenv("EXPRESSUP_UPLOAD_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid EXPRESSUP_UPLOAD_TIMEOUT: %w", err)
		}
		cfg.Express.UploadTimeout = d
	}
	if root := os.Getenv("EXPRESSUP_ORDERS_ROOT"); root != "" {
		cfg.Orders.RootDir = root
	}
	if s := os.Getenv("EXPRESSUP_LOOKBACK_HOURS"); s != "" {
		hours, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid EXPRESSUP_LOOKBACK_HOURS: %w", err)
		}
		cfg.Orders.LookbackHours = hours
	}
	if selection := os.Getenv("EXPRESSUP_SELECTION"); selection != "" {
		cfg.Orders.Selection = selection
	}
	if s := os.Getenv("EXPRESSUP_AUTO_UPLOAD"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid EXPRESSUP_AUTO_UPLOAD: %w", err)
		}
		cfg.Orders.AutoUpload = v
	}
	if dbPath := os.Getenv("EXPRESSUP_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("EXPRESSUP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("EXPRESSUP_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.Express.URL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("express.base_url %q is not an absolute URL", c.Express.URL())
	}
	if c.Express.UploadTimeout < 0 {
		return fmt.Errorf("express.upload_timeout must not be negative")
	}
	if math.IsNaN(c.Orders.LookbackHours) || c.Orders.LookbackHours < 0 {
		return fmt.Errorf("orders.lookback_hours must be a non-negative number")
	}
	switch strings.ToLower(c.Orders.Selection) {
	case "negotiated", "legacy":
	default:
		return fmt.Errorf("orders.selection %q must be negotiated or legacy", c.Orders.Selection)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must be set")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "expressup.db"
	}
	return filepath.Join(dir, "expressup", "expressup.db")
}
