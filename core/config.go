package core

import (
	"fmt"
	"strings"
)

type ParserConfig struct {
	TokenCapacity int `koanf:"token_capacity" mapstructure:"token_capacity"`
}

type Config struct {
	ModuleID       string       `koanf:"module_id" mapstructure:"module_id"`
	Owner          string       `koanf:"owner" mapstructure:"owner"`
	DefaultTimeout int64        `koanf:"default_timeout" mapstructure:"default_timeout"`
	Parser         ParserConfig `koanf:"parser" mapstructure:"parser"`
}

func DefaultConfig() Config {
	return Config{
		ModuleID:       "service-market",
		DefaultTimeout: 100,
		Parser: ParserConfig{
			TokenCapacity: 64,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ModuleID) == "" {
		return fmt.Errorf("core: module_id is required")
	}
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("core: default_timeout cannot be negative")
	}
	if c.Parser.TokenCapacity <= 0 {
		return fmt.Errorf("core: parser token_capacity must be positive")
	}
	return nil
}
