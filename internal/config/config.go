package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "HISTOTREK"
	DefaultPoolSize = 5
)

type Config struct {
	AppEnv   string
	Locale   string
	LogLevel string
	Database DatabaseConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	URL      string
	Username string
	Password string
	PoolSize int
	RunDDL   bool
	RunDML   bool
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Enabled reports whether a redis address was configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

type MetricsConfig struct {
	Addr string
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// RegisterFlags adds the command line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to the histotrek YAML configuration file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// Load reads configuration from .env, the YAML file, HISTOTREK_* environment
// variables and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// .env is optional; the process environment works on its own.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".env file could not be loaded: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
		if f := flags.Lookup("log-level"); f != nil {
			if err := v.BindPFlag("log.level", f); err != nil {
				return nil, fmt.Errorf("log-level flag could not be bound: %w", err)
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("histotrek")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.histotrek")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file could not be read: %w", err)
		}
	}

	var cfg Config

	cfg.AppEnv = v.GetString("app.env")
	cfg.Locale = v.GetString("app.locale")
	cfg.LogLevel = v.GetString("log.level")

	cfg.Database.URL = v.GetString("db.url")
	cfg.Database.Username = v.GetString("db.username")
	cfg.Database.Password = v.GetString("db.password")
	cfg.Database.PoolSize = v.GetInt("db.pool.size")
	cfg.Database.RunDDL = v.GetBool("db.run.ddl")
	cfg.Database.RunDML = v.GetBool("db.run.dml")

	cfg.Cache.RedisAddr = v.GetString("cache.redis.addr")
	cfg.Cache.RedisPassword = v.GetString("cache.redis.password")
	cfg.Cache.RedisDB = v.GetInt("cache.redis.db")
	cfg.Cache.TTL = v.GetDuration("cache.ttl")

	cfg.Metrics.Addr = v.GetString("metrics.addr")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.locale", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.pool.size", DefaultPoolSize)
	v.SetDefault("db.run.ddl", false)
	v.SetDefault("db.run.dml", false)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("db.url is required")
	}
	if c.Database.PoolSize < 1 {
		return fmt.Errorf("db.pool.size must be positive, got %d", c.Database.PoolSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}
