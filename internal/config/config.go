// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Fields map 1:1 onto the
// config file sections; CLI flags and DOMLENS_* env vars are bound over them
// by the command layer before unmarshaling.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Inspect InspectConfig `mapstructure:"inspect" yaml:"inspect"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome allocator and per-session timing.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath       string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args           []string `mapstructure:"args" yaml:"args"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	// StabilizeTimeout bounds the post-navigation wait for the document to
	// become ready; QuietPeriod is the additional settle time after that.
	StabilizeTimeout time.Duration `mapstructure:"stabilize_timeout" yaml:"stabilize_timeout"`
	QuietPeriod      time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	ReadRateLimit    float64       `mapstructure:"read_rate_limit" yaml:"read_rate_limit"`
}

// InspectConfig carries the defaults for the inspect command. Highlighting is
// on and the viewport expansion is zero unless overridden by flags.
type InspectConfig struct {
	Highlight           bool   `mapstructure:"highlight" yaml:"highlight"`
	FocusIndex          int    `mapstructure:"focus_index" yaml:"focus_index"`
	ViewportExpansion   int    `mapstructure:"viewport_expansion" yaml:"viewport_expansion"`
	FailClosedOcclusion bool   `mapstructure:"fail_closed_occlusion" yaml:"fail_closed_occlusion"`
	Concurrency         int    `mapstructure:"concurrency" yaml:"concurrency"`
	OutputFile          string `mapstructure:"output_file" yaml:"output_file"`
	ScreenshotFile      string `mapstructure:"screenshot_file" yaml:"screenshot_file"`
	AnnotateScreenshot  bool   `mapstructure:"annotate_screenshot" yaml:"annotate_screenshot"`
	PrettyJSON          bool   `mapstructure:"pretty_json" yaml:"pretty_json"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "domlens-cli")
	v.SetDefault("logger.log_file", "domlens.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.stabilize_timeout", "30s")
	v.SetDefault("browser.quiet_period", "500ms")
	v.SetDefault("browser.read_rate_limit", 400.0)

	// -- Inspect --
	v.SetDefault("inspect.highlight", true)
	v.SetDefault("inspect.focus_index", -1)
	v.SetDefault("inspect.viewport_expansion", 0)
	v.SetDefault("inspect.fail_closed_occlusion", false)
	v.SetDefault("inspect.concurrency", 2)
	v.SetDefault("inspect.annotate_screenshot", false)
	v.SetDefault("inspect.pretty_json", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser.viewport_width and browser.viewport_height must be positive")
	}
	if c.Browser.StabilizeTimeout <= 0 {
		return fmt.Errorf("browser.stabilize_timeout must be a positive duration")
	}
	if c.Browser.ReadRateLimit <= 0 {
		return fmt.Errorf("browser.read_rate_limit must be positive")
	}
	if c.Inspect.ViewportExpansion < -1 {
		return fmt.Errorf("inspect.viewport_expansion must be -1 or greater")
	}
	if c.Inspect.FocusIndex < -1 {
		return fmt.Errorf("inspect.focus_index must be -1 or a valid highlight index")
	}
	if c.Inspect.Concurrency <= 0 {
		return fmt.Errorf("inspect.concurrency must be a positive integer")
	}
	return nil
}
