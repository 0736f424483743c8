package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	yaml "gopkg.in/yaml.v3"
)

// LogConfig mirrors the LOG_* environment used by obslog.
type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`
	ToFile  bool   `yaml:"to_file"`
	Console bool   `yaml:"console"`
	Caller  bool   `yaml:"caller"`
}

type AppConfig struct {
	NodeID string `yaml:"node_id"`

	RedisURL           string `yaml:"redis_url"`
	RelayChannelPrefix string `yaml:"relay_channel_prefix"`

	HTTPAddr string `yaml:"http_addr"`

	ChessDBURL         string        `yaml:"chessdb_url"`
	OpeningBookTimeout time.Duration `yaml:"opening_book_timeout"`
	OpeningBookRetry   int           `yaml:"opening_book_retry"`

	MaxConcurrentMatches int  `yaml:"max_concurrent_matches"`
	StalemateIsDraw      bool `yaml:"stalemate_is_draw"`

	MessageDir string `yaml:"message_dir"`

	Log LogConfig `yaml:"log"`

	envErrs []error
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		RelayChannelPrefix:   "xiangqi:relay",
		ChessDBURL:           "https://www.chessdb.cn/chessdb.php",
		OpeningBookTimeout:   5 * time.Second,
		OpeningBookRetry:     2,
		MaxConcurrentMatches: 200,
		Log: LogConfig{
			Level:   "info",
			Format:  "legacy",
			File:    "logs/xiangqi.log",
			ToFile:  false,
			Console: true,
		},
	}
}

// Load applies defaults, then the YAML file named by XIANGQI_CONFIG, then
// environment overrides, and validates the result.
func Load() (*AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("XIANGQI_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	setString(&c.NodeID, "XIANGQI_NODE_ID")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.RelayChannelPrefix, "XIANGQI_RELAY_PREFIX")
	setString(&c.HTTPAddr, "XIANGQI_HTTP_ADDR")
	setString(&c.ChessDBURL, "CHESSDB_URL")
	setString(&c.MessageDir, "XIANGQI_MESSAGE_DIR")

	c.setDuration(&c.OpeningBookTimeout, "OPENING_BOOK_TIMEOUT")
	c.setInt(&c.OpeningBookRetry, "OPENING_BOOK_RETRY")
	c.setInt(&c.MaxConcurrentMatches, "MAX_CONCURRENT_MATCHES")
	c.setBool(&c.StalemateIsDraw, "XIANGQI_STALEMATE_DRAW")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.File, "LOG_FILE")
	c.setBool(&c.Log.ToFile, "LOG_TO_FILE")
	c.setBool(&c.Log.Console, "LOG_TO_CONSOLE")
	c.setBool(&c.Log.Caller, "LOG_CALLER")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Unparsable values keep the previous setting and are reported by Validate.
func (c *AppConfig) setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("%s %q: not a boolean", key, v))
			return
		}
		*dst = b
	}
}

func (c *AppConfig) setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("%s %q: not an integer", key, v))
			return
		}
		*dst = n
	}
}

func (c *AppConfig) setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("%s %q: not a duration", key, v))
			return
		}
		*dst = d
	}
}

// Validate reports every invalid field at once.
func (c *AppConfig) Validate() error {
	var errs *multierror.Error
	for _, err := range c.envErrs {
		errs = multierror.Append(errs, err)
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errs = multierror.Append(errs, fmt.Errorf("REDIS_URL %q: want redis:// or rediss://", c.RedisURL))
		}
		if strings.TrimSpace(c.RelayChannelPrefix) == "" {
			errs = multierror.Append(errs, errors.New("XIANGQI_RELAY_PREFIX is required when REDIS_URL is set"))
		}
	}
	if c.ChessDBURL != "" {
		if u, err := url.Parse(c.ChessDBURL); err != nil || u.Host == "" {
			errs = multierror.Append(errs, fmt.Errorf("CHESSDB_URL %q is not an absolute URL", c.ChessDBURL))
		}
	}
	if c.OpeningBookTimeout <= 0 {
		errs = multierror.Append(errs, errors.New("OPENING_BOOK_TIMEOUT must be positive"))
	}
	if c.OpeningBookRetry < 0 {
		errs = multierror.Append(errs, errors.New("OPENING_BOOK_RETRY must not be negative"))
	}
	if c.MaxConcurrentMatches <= 0 {
		errs = multierror.Append(errs, errors.New("MAX_CONCURRENT_MATCHES must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "legacy", "json", "console":
	default:
		errs = multierror.Append(errs, fmt.Errorf("LOG_FORMAT %q: want legacy, json or console", c.Log.Format))
	}
	return errs.ErrorOrNil()
}
