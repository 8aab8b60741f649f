// Package config loads decider-go's runtime configuration using Viper, supporting a config file,
// environment variables, and in-code defaults, the same layering the pack's Viper-based config
// packages use. Struct-tag validation is layered on top with go-playground/validator.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every configuration key enumerated in §6: task requeue timeout, workflow search
// cap, and the queue/payload/Redis connection settings needed to wire the rest of the module.
type Config struct {
	Task struct {
		RequeueTimeoutMs int `mapstructure:"requeue_timeout_ms" validate:"gte=0"`
	} `mapstructure:"task"`

	Workflow struct {
		MaxSearchSize int `mapstructure:"max_search_size" validate:"gte=1"`
	} `mapstructure:"workflow"`

	Queue struct {
		VisibilityTimeoutMs int    `mapstructure:"visibility_timeout_ms" validate:"gte=0"`
		RedisAddr           string `mapstructure:"redis_addr"`
		RedisDB             int    `mapstructure:"redis_db" validate:"gte=0"`
	} `mapstructure:"queue"`

	Payload struct {
		ThresholdBytes int `mapstructure:"threshold_bytes" validate:"gte=0"`
	} `mapstructure:"payload"`

	HTTP struct {
		Addr string `mapstructure:"addr" validate:"required"`
	} `mapstructure:"http"`
}

// Load reads configuration from a "deciderctl" config file (if present) plus DECIDER_-prefixed
// environment variables, falling back to defaults, and validates the result.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("task.requeue_timeout_ms", 60000)
	v.SetDefault("workflow.max_search_size", 5000)
	v.SetDefault("queue.visibility_timeout_ms", 60000)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("payload.threshold_bytes", 1<<20)
	v.SetDefault("http.addr", ":8080")

	v.SetConfigName("deciderctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/decider-go/")
	v.AddConfigPath("$HOME/.decider-go")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DECIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config into struct: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
