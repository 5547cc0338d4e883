package dynamix

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvConfig is the environment-variable surface for constructing a client,
// read under the DYNAMIX_ prefix. Unset fields keep the built-in defaults.
type EnvConfig struct {
	BaseURL        string        `envconfig:"BASE_URL" required:"true"`
	SegmentFormat  string        `envconfig:"SEGMENT_FORMAT" default:"unchanged"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"INITIAL_BACKOFF" default:"100ms"`
	MaxBackoff     time.Duration `envconfig:"MAX_BACKOFF" default:"10s"`
	Multiplier     float64       `envconfig:"BACKOFF_MULTIPLIER" default:"2.0"`
	Jitter         float64       `envconfig:"JITTER" default:"0.1"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"1"`

	BearerToken  string `envconfig:"BEARER_TOKEN"`
	APIKey       string `envconfig:"API_KEY"`
	APIKeyHeader string `envconfig:"API_KEY_HEADER" default:"X-API-Key"`

	KnownPathsFile string `envconfig:"KNOWN_PATHS_FILE"`
}

// LoadEnvConfig reads the DYNAMIX_ environment variables.
func LoadEnvConfig() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("dynamix", &cfg); err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: "cannot process environment configuration",
			Cause:   err,
		}
	}
	return &cfg, nil
}

// LoadDotenv loads variables from the named files, or from ".env" when none
// are given, without overriding variables already set in the environment.
// A missing default ".env" is not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "cannot load dotenv files",
			Cause:   err,
		}
	}
	return nil
}

// LoadKnownPaths reads a YAML file mapping raw segment names to their pinned
// renderings.
func LoadKnownPaths(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("cannot read known paths file %q", path),
			Cause:   err,
		}
	}
	paths := map[string]string{}
	if err := yaml.Unmarshal(data, &paths); err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("cannot parse known paths file %q", path),
			Cause:   err,
		}
	}
	return paths, nil
}

// Options converts the environment configuration into client options.
func (cfg *EnvConfig) Options() ([]Option, error) {
	opts := []Option{
		WithSegmentFormat(SegmentFormat(cfg.SegmentFormat)),
		WithTimeout(cfg.Timeout),
		WithMaxAttempts(cfg.MaxAttempts),
		WithInitialBackoff(cfg.InitialBackoff),
		WithMaxBackoff(cfg.MaxBackoff),
		WithBackoffMultiplier(cfg.Multiplier),
		WithJitter(cfg.Jitter),
	}

	if cfg.RateLimitRPS > 0 {
		opts = append(opts, WithRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	switch {
	case cfg.BearerToken != "" && cfg.APIKey != "":
		opts = append(opts, WithAuth(MultiAuth{
			&BearerAuth{Token: cfg.BearerToken},
			&APIKeyAuth{Key: cfg.APIKey, Header: cfg.APIKeyHeader},
		}))
	case cfg.BearerToken != "":
		opts = append(opts, WithAuth(&BearerAuth{Token: cfg.BearerToken}))
	case cfg.APIKey != "":
		opts = append(opts, WithAuth(&APIKeyAuth{Key: cfg.APIKey, Header: cfg.APIKeyHeader}))
	}

	if cfg.KnownPathsFile != "" {
		paths, err := LoadKnownPaths(cfg.KnownPathsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithKnownPaths(paths))
	}

	return opts, nil
}

// NewFromEnv constructs a client entirely from DYNAMIX_ environment
// variables. Extra options are applied after the environment-derived ones
// and take precedence.
func NewFromEnv(extra ...Option) (*Client, error) {
	cfg, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	client := New(cfg.BaseURL, append(opts, extra...)...)
	if err := client.ValidationError(); err != nil {
		return nil, err
	}
	return client, nil
}
