// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads runtime settings from the environment and an optional
// config file.
//
// Every key can be set through an HWY_-prefixed environment variable, with
// dots replaced by underscores:
//
//	HWY_NUM_THREADS=8      worker pool size (0 = one per CPU)
//	HWY_STRATEGY=dynamic   default partition strategy
//	HWY_LOG_LEVEL=debug    logrus level
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "HWY"

// Config represents the runtime configuration.
type Config struct {
	NumThreads int       `mapstructure:"num_threads"`
	Strategy   string    `mapstructure:"strategy"`
	Log        LogConfig `mapstructure:"log"`
}

// LogConfig controls logging.Init.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

var (
	ErrInvalidThreads  = errors.New("config: num_threads must be >= 0")
	ErrInvalidStrategy = errors.New("config: strategy must be \"static\" or \"dynamic\"")
)

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		NumThreads: 0,
		Strategy:   "static",
		Log: LogConfig{
			Level:   "warn",
			File:    "",
			Console: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("num_threads", d.NumThreads)
	v.SetDefault("strategy", d.Strategy)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.console", d.Log.Console)
}

// Load reads the configuration. path may be empty, in which case only the
// defaults and the environment are consulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the value ranges of the configuration.
func (c *Config) Validate() error {
	if c.NumThreads < 0 {
		return ErrInvalidThreads
	}
	switch strings.ToLower(c.Strategy) {
	case "static", "dynamic":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStrategy, c.Strategy)
	}
	return nil
}
