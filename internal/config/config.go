// Package config loads runtime settings from defaults, an optional config
// file, DICRI_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. DICRI_ADDR.
const EnvPrefix = "DICRI"

// Config holds all runtime settings.
type Config struct {
	DB              string        `mapstructure:"db"`
	Addr            string        `mapstructure:"addr"`
	Log             string        `mapstructure:"log"`
	Debug           bool          `mapstructure:"debug"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenExpiry     time.Duration `mapstructure:"token_expiry"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	LoginRate struct {
		PerMinute int `mapstructure:"per_minute"`
		Burst     int `mapstructure:"burst"`
	} `mapstructure:"login_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "dicri.db")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log", "")
	v.SetDefault("debug", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_expiry", 8*time.Hour)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("login_rate.per_minute", 10)
	v.SetDefault("login_rate.burst", 5)
}

// Load reads the configuration. file may be empty, in which case dicri.yaml
// is looked up in the working directory and /etc/dicri and silently skipped
// if absent. Flags that were set explicitly override everything else.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("dicri")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dicri")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.DB == "":
		return errors.New("config: db path is required")
	case c.Addr == "":
		return errors.New("config: addr is required")
	case c.TokenExpiry <= 0:
		return fmt.Errorf("config: token_expiry must be positive, got %s", c.TokenExpiry)
	case c.LoginRate.PerMinute <= 0 || c.LoginRate.Burst <= 0:
		return errors.New("config: login_rate values must be positive")
	}
	return nil
}
