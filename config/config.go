package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DRIVER_MONGO    = "mongo"
	DRIVER_DYNAMODB = "dynamodb"
	DRIVER_POSTGRES = "postgres"
	DRIVER_SQLITE   = "sqlite"

	DEFAULT_CACHE_TTL = 10 * time.Minute
)

// Config is shared by the etl and dashboard binaries.
type Config struct {
	SourceDir    string   `yaml:"source_dir"`
	MaxFiles     int      `yaml:"max_files"`
	AllowedLangs []string `yaml:"allowed_langs"`
	Workers      int      `yaml:"workers"`

	Sink  SinkConfig  `yaml:"sink"`
	Cache CacheConfig `yaml:"cache"`

	HTTPPort    int    `yaml:"http_port"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// SinkConfig locates the document store holding cleaned posts.
type SinkConfig struct {
	Driver     string `yaml:"driver"`
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`

	// DynamoDB only.
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// CacheConfig configures the valkey cache in front of dashboard reads.
// An empty Address disables caching.
type CacheConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	TLS      bool          `yaml:"tls"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SourceDir:    "raw",
		AllowedLangs: []string{"en", "fr", "pt"},
		Workers:      1,
		Sink: SinkConfig{
			Driver:     DRIVER_MONGO,
			Database:   "twitter_db",
			Collection: "worldcup_tweets",
			Region:     "us-west-2",
		},
		Cache:    CacheConfig{TTL: DEFAULT_CACHE_TTL},
		HTTPPort: 8080,
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// ETL_CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ETL_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("[Config] read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("[Config] parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var errs []error

	c.SourceDir = getString("ETL_SOURCE_DIR", c.SourceDir)
	c.MaxFiles = getInt("ETL_MAX_FILES", c.MaxFiles, &errs)
	c.AllowedLangs = getList("ETL_ALLOWED_LANGS", c.AllowedLangs)
	c.Workers = getInt("ETL_WORKERS", c.Workers, &errs)

	c.Sink.Driver = strings.ToLower(getString("SINK_DRIVER", c.Sink.Driver))
	c.Sink.URI = getString("SINK_URI", c.Sink.URI)
	c.Sink.Database = getString("SINK_DATABASE", c.Sink.Database)
	c.Sink.Collection = getString("SINK_COLLECTION", c.Sink.Collection)
	c.Sink.Region = getString("AWS_REGION", c.Sink.Region)
	c.Sink.Endpoint = getString("AWS_ENDPOINT", c.Sink.Endpoint)

	c.Cache.Address = getString("VALKEY_INIT_ADDRESS", c.Cache.Address)
	c.Cache.Password = getString("VALKEY_PASSWORD", c.Cache.Password)
	c.Cache.TLS = getBool("VALKEY_TLS", c.Cache.TLS, &errs)
	c.Cache.TTL = getDuration("VALKEY_TTL", c.Cache.TTL, &errs)

	c.HTTPPort = getInt("PORT", c.HTTPPort, &errs)
	c.MetricsAddr = getString("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getString("LOG_LEVEL", c.LogLevel)

	return errors.Join(errs...)
}

// Validate reports settings that would make a run meaningless.
func (c Config) Validate() error {
	var errs []error

	switch c.Sink.Driver {
	case DRIVER_MONGO, DRIVER_POSTGRES, DRIVER_SQLITE:
		if c.Sink.URI == "" {
			errs = append(errs, fmt.Errorf("SINK_URI is required for driver %q", c.Sink.Driver))
		}
	case DRIVER_DYNAMODB:
		if c.Sink.Region == "" {
			errs = append(errs, errors.New("AWS_REGION is required for driver \"dynamodb\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SINK_DRIVER %q", c.Sink.Driver))
	}

	if c.Sink.Collection == "" {
		errs = append(errs, errors.New("SINK_COLLECTION must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("ETL_WORKERS must be at least 1, got %d", c.Workers))
	}
	if c.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("ETL_MAX_FILES must not be negative, got %d", c.MaxFiles))
	}
	if len(c.AllowedLangs) == 0 {
		errs = append(errs, errors.New("ETL_ALLOWED_LANGS must name at least one language"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[Config] invalid configuration: %w", err)
	}
	return nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func getBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return b
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
