package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SOIL_NARRATIVE_API_KEY
const EnvPrefix = "SOIL"

// Config holds all configuration for soilmaestro
type Config struct {
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Narrative  NarrativeConfig  `mapstructure:"narrative"`
	Schema     string           `mapstructure:"schema"`
	Server     ServerConfig     `mapstructure:"server"`
	Proxy      ProxyConfig      `mapstructure:"proxy"`
	Log        LogConfig        `mapstructure:"log"`
	Rotator    RotatorConfig    `mapstructure:"rotator"`
}

type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NarrativeConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

type ProxyConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	PassphraseHash string        `mapstructure:"passphrase_hash"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RotatorConfig struct {
	Period time.Duration `mapstructure:"period"`
}

// Addr returns the host:port the HTTP server listens on
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from defaults, an optional YAML file and SOIL_*
// environment variables, in increasing precedence. An empty path looks for
// config.yaml in the working directory and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Classification service defaults
	v.SetDefault("classifier.url", "http://localhost:8000/predict")
	v.SetDefault("classifier.timeout", "0s")

	// Narrative service defaults
	v.SetDefault("narrative.url", "https://api.groq.com/openai/v1")
	v.SetDefault("narrative.api_key", "")
	v.SetDefault("narrative.model", "llama-3.3-70b-versatile")
	v.SetDefault("narrative.timeout", "0s")

	v.SetDefault("schema", models.SchemaNameFull)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.session_ttl", "30m")

	// Proxy defaults
	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.jwt_secret", "")
	v.SetDefault("proxy.passphrase_hash", "")
	v.SetDefault("proxy.token_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("rotator.period", "5s")
}

// Validate checks the values Load cannot default sensibly
func (c *Config) Validate() error {
	if _, ok := models.SchemaByName(c.Schema); !ok {
		return fmt.Errorf("unknown schema %q (want %s or %s)", c.Schema, models.SchemaNameFull, models.SchemaNameReduced)
	}
	if err := validateURL("classifier.url", c.Classifier.URL); err != nil {
		return err
	}
	if err := validateURL("narrative.url", c.Narrative.URL); err != nil {
		return err
	}
	if c.Classifier.Timeout < 0 || c.Narrative.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Rotator.Period <= 0 {
		return fmt.Errorf("rotator period must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Proxy.Enabled {
		if c.Proxy.JWTSecret == "" {
			return fmt.Errorf("proxy.jwt_secret is required when the proxy is enabled")
		}
		if c.Proxy.PassphraseHash == "" {
			return fmt.Errorf("proxy.passphrase_hash is required when the proxy is enabled")
		}
		if c.Narrative.APIKey == "" {
			return fmt.Errorf("narrative.api_key is required when the proxy is enabled")
		}
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
