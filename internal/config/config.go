// Package config loads and validates news helper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. NEWSHELPER_SERVER_PORT.
const EnvPrefix = "NEWSHELPER"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Web     WebConfig     `mapstructure:"web"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP listener behavior.
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig holds the raw allow-list in "label:key|label:key" form.
type AuthConfig struct {
	AllowedKeys string `mapstructure:"allowed_keys"`
}

// CORSConfig lists which browser origins may call the API.
type CORSConfig struct {
	AllowLocalhost bool     `mapstructure:"allow_localhost"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

// WebConfig configures the form frontend.
type WebConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIBase        string `mapstructure:"api_base"`
	DefaultLang    string `mapstructure:"default_lang"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Web.DefaultLang = strings.ToLower(strings.TrimSpace(cfg.Web.DefaultLang))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv populates the process environment from a .env file without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("auth.allowed_keys", "")
	v.SetDefault("cors.allow_localhost", true)
	v.SetDefault("cors.allowed_domains", []string{"hexagonlabs.cloud"})
	v.SetDefault("web.enabled", true)
	v.SetDefault("web.api_base", "/api")
	v.SetDefault("web.default_lang", "en")
	v.SetDefault("web.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// bindLegacyEnv keeps the unprefixed variables used by existing deployments working.
// The prefixed name wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":       {EnvPrefix + "_SERVER_PORT", "PORT"},
		"auth.allowed_keys": {EnvPrefix + "_AUTH_ALLOWED_KEYS", "ALLOWED_KEYS"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be > 0")
	}
	if c.Web.APIBase == "" {
		return fmt.Errorf("web.api_base must be set")
	}
	if c.Web.TimeoutSeconds <= 0 {
		return fmt.Errorf("web.timeout_seconds must be > 0")
	}
	switch c.Web.DefaultLang {
	case "en", "es":
	default:
		return fmt.Errorf("web.default_lang must be one of en, es (got %q)", c.Web.DefaultLang)
	}
	return nil
}

// Addr returns the host:port pair the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LocalOrigin is the loopback origin of this server's own listener. Wildcard
// and empty hosts map to 127.0.0.1.
func (c Config) LocalOrigin() string {
	host := c.Server.Host
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout converts the configured drain window into a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// WebTimeout bounds each call the frontend makes to the analyze API.
func (c Config) WebTimeout() time.Duration {
	return time.Duration(c.Web.TimeoutSeconds) * time.Second
}
