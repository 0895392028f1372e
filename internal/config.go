package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tuannm99/novakv/internal/page"
)

type NovaKVConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Path           string `mapstructure:"path"`
		PageSize       int    `mapstructure:"page_size"`
		StrictFreelist bool   `mapstructure:"strict_freelist"`
	} `mapstructure:"storage"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novakv")
	v.SetDefault("storage.path", "./data/novakv.db")
	v.SetDefault("storage.page_size", page.DefaultPageSize)
	v.SetDefault("storage.strict_freelist", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func DefaultConfig() *NovaKVConfig {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Decode(v)
	if err != nil {
		// defaults are static and always decode
		panic(err)
	}
	return cfg
}

// LoadConfig reads a yaml file on top of the defaults. NOVAKV_* environment
// variables override file values.
func LoadConfig(path string) (*NovaKVConfig, error) {
	v := NewViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Decode(v)
}

// NewViper returns a viper instance with defaults and env binding set up,
// ready for a config file or flags to be layered on.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("novakv")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode unmarshals v and validates the result.
func Decode(v *viper.Viper) (*NovaKVConfig, error) {
	var cfg NovaKVConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *NovaKVConfig) Validate() error {
	if err := page.CheckPageSize(c.Storage.PageSize); err != nil {
		return fmt.Errorf("config: storage.page_size: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	return nil
}
