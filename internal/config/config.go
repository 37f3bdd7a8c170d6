package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// durationSeconds parses env as time.Duration: "10s", "5m" or bare number = seconds (e.g. "10" -> 10s).
// It implements cleanenv.Setter.
type durationSeconds time.Duration

func (d *durationSeconds) SetValue(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = durationSeconds(v)
	return nil
}

func (d durationSeconds) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	// Strip optional surrounding quotes: "10s" or '10s'
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(n) * time.Second
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

type Config struct {
	App     AppConfig
	Gateway GatewayConfig
	HTTP    HTTPConfig
	Log     LogConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" env-default:"dev"`
	Version string `env:"VERSION" env-default:"dev"`
}

// GatewayConfig is the client side: where the todo app sends its requests.
type GatewayConfig struct {
	URL     string          `env:"TODO_GATEWAY_URL" env-default:"http://localhost:8080/api/v1"`
	Timeout durationSeconds `env:"TODO_GATEWAY_TIMEOUT" env-default:"5s"`
	// Token overrides the saved credentials file when set.
	Token string `env:"TODO_TOKEN" env-default:""`
}

// HTTPConfig is the server side: the development gateway.
type HTTPConfig struct {
	Port         string          `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  durationSeconds `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout durationSeconds `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  durationSeconds `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`

	// Token, when set, is required as a bearer token on /api/v1.
	Token string `env:"GATEWAY_TOKEN" env-default:""`
	// DataFile keeps todos across restarts. Empty = memory only.
	DataFile string `env:"GATEWAY_DATA_FILE" env-default:""`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	File  string `env:"LOG_FILE" env-default:""`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := ValidateGatewayURL(c.Gateway.URL); err != nil {
		return fmt.Errorf("TODO_GATEWAY_URL: %w", err)
	}
	port, err := strconv.Atoi(c.HTTP.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("HTTP_PORT: must be a number between 1 and 65535, got %q", c.HTTP.Port)
	}
	return nil
}

// ValidateGatewayURL checks that s is an absolute http(s) URL.
func ValidateGatewayURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Addr is the listen address of the development gateway.
func (h HTTPConfig) Addr() string { return "0.0.0.0:" + h.Port }
