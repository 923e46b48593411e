// Package config loads prizewheel settings from defaults, an optional
// YAML file, PRIZEWHEEL_* environment variables and command-line flags.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "PRIZEWHEEL"
	configName     = "prizewheel"
	DefaultEnvFile = ".env"
)

// Config is the resolved application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Spin      SpinConfig      `mapstructure:"spin"`
	Contact   ContactConfig   `mapstructure:"contact"`

	// ShowVersion is set by --version and never read from files
	ShowVersion bool `mapstructure:"-"`
	// File is the config file that was read, if any
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
	// HTTP enables request logging at startup
	HTTP bool `mapstructure:"http"`
}

type AuthConfig struct {
	// JWTSecret signs tenant tokens; a random one is generated when empty
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	OwnerEmail string        `mapstructure:"owner_email" validate:"omitempty,email"`
}

type RateLimitConfig struct {
	// Public is the per-IP limit on public routes, e.g. "60-M"; empty disables it
	Public        string `mapstructure:"public"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

type SpinConfig struct {
	// Window is the rolling period for per-contact spin limits
	Window time.Duration `mapstructure:"window" validate:"gt=0"`
}

type ContactConfig struct {
	// PhoneRegion is the region assumed for phone numbers without a country code
	PhoneRegion string `mapstructure:"phone_region" validate:"len=2,alpha"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "prizewheel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.http", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.owner_email", "")
	v.SetDefault("ratelimit.public", "60-M")
	v.SetDefault("ratelimit.redis_addr", "")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("spin.window", 24*time.Hour)
	v.SetDefault("contact.phone_region", "US")
}

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"port":         "server.port",
	"db":           "database.path",
	"loglevel":     "log.level",
	"logfile":      "log.file",
	"httplog":      "log.http",
	"jwt-secret":   "auth.jwt_secret",
	"owner-email":  "auth.owner_email",
	"rate-limit":   "ratelimit.public",
	"redis":        "ratelimit.redis_addr",
	"spin-window":  "spin.window",
	"phone-region": "contact.phone_region",
}

// NewFlagSet returns the command-line flags understood by Load
func NewFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	flags.Int("port", 8081, "HTTP server port")
	flags.String("db", "prizewheel.db", "SQLite database path")
	flags.String("loglevel", "info", "Log level (debug, info, warn, error)")
	flags.String("logfile", "", "Also write JSON logs to this file, rotated")
	flags.Bool("httplog", false, "Log every HTTP request")
	flags.String("jwt-secret", "", "Secret for signing tenant tokens (generated if not set)")
	flags.String("owner-email", "", "Email of the platform owner account")
	flags.String("rate-limit", "60-M", `Per-IP limit on public routes, e.g. "60-M"; empty disables`)
	flags.String("redis", "", "Redis address for a shared rate limit store")
	flags.Duration("spin-window", 24*time.Hour, "Rolling window for per-contact spin limits")
	flags.String("phone-region", "US", "Region for phone numbers entered without a country code")
	flags.String("config", "", "Path to a config file (default ./prizewheel.yaml if present)")
	flags.String("envfile", DefaultEnvFile, "Path to a .env file")
	flags.Bool("version", false, "Show version and exit")
	return flags
}

// Load parses args and resolves the configuration. Precedence, lowest
// first: defaults, config file, environment, flags. Variables from the
// .env file only fill in what the environment does not already set.
func Load(args []string) (*Config, error) {
	flags := NewFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := flags.GetString("envfile")
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := newViper()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	configFile, _ := flags.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.ShowVersion, _ = flags.GetBool("version")
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// Default returns the configuration with only defaults applied
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// an empty variable is a value, so PRIZEWHEEL_RATELIMIT_PUBLIC="" disables limiting
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.RateLimit.Public = strings.TrimSpace(cfg.RateLimit.Public)
	cfg.Contact.PhoneRegion = strings.ToUpper(strings.TrimSpace(cfg.Contact.PhoneRegion))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the resolved values
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s validation (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// LoadEnvFile sets variables from a .env file without overriding ones
// already in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for key, value := range vars {
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return nil
}
