// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. WEBPOOL_POOL_SIZE.
const EnvPrefix = "WEBPOOL"

// Config holds all configuration for the server.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	PoolSize       int           `mapstructure:"pool_size" validate:"gt=0"`
	MaxQueued      int           `mapstructure:"max_queued" validate:"gte=0"`
	ListenAddr     string        `mapstructure:"listen_addr" validate:"required,hostname_port"`
	MaxConnections int           `mapstructure:"max_connections" validate:"gte=0"`
	StaticRoot     string        `mapstructure:"static_root" validate:"required"`
	SlowPathDelay  time.Duration `mapstructure:"slow_path_delay" validate:"gte=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`

	MetricsListenAddr string `mapstructure:"metrics_listen_addr" validate:"omitempty,hostname_port"`
	HealthListenAddr  string `mapstructure:"health_listen_addr" validate:"omitempty,hostname_port"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	TracingEnabled    bool   `mapstructure:"tracing_enabled"`

	EtcdEndpoints   []string      `mapstructure:"etcd_endpoints" validate:"omitempty,dive,required"`
	EtcdTimeout     time.Duration `mapstructure:"etcd_timeout" validate:"gt=0"`
	RegistrationTTL time.Duration `mapstructure:"registration_ttl" validate:"gte=1s"`
}

// Load loads configuration from ./configs/config.yaml or ./config.yaml and
// environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")    // name of config file (without extension)
	v.SetConfigType("yaml")      // or "json", "toml"
	v.AddConfigPath("./configs") // path to look for the config file in
	v.AddConfigPath(".")         // optionally look for config in the working directory
	return LoadWith(v)
}

// LoadWith applies defaults and environment overrides to v, reads its
// config file if one is set up, and returns the validated result.
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file; defaults and env vars are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pool_size", 4)
	v.SetDefault("max_queued", 0)
	v.SetDefault("listen_addr", "127.0.0.1:7878")
	v.SetDefault("max_connections", 0)
	v.SetDefault("static_root", "./static")
	v.SetDefault("slow_path_delay", "5s")
	v.SetDefault("read_timeout", "10s")
	v.SetDefault("metrics_listen_addr", ":9090")
	v.SetDefault("health_listen_addr", ":50051")
	v.SetDefault("log_level", "info")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("etcd_endpoints", []string{})
	v.SetDefault("etcd_timeout", "5s")
	v.SetDefault("registration_ttl", "10s")
}

// Validate checks field constraints and returns one error listing every
// offending field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// RegistrationEnabled reports whether the node should register itself in etcd.
func (c *Config) RegistrationEnabled() bool {
	return len(c.EtcdEndpoints) > 0
}
