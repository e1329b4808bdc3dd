// Package config loads the interchange and server configuration from the
// environment, with .env file support for local development.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Softsensor-org/Kaizen/pkg/nemt837"
)

type Config struct {
	Port string `mapstructure:"KZN_PORT"`
	Env  string `mapstructure:"ENV"`

	SenderQual     string `mapstructure:"KZN_SENDER_QUAL"`
	SenderID       string `mapstructure:"KZN_SENDER_ID"`
	ReceiverQual   string `mapstructure:"KZN_RECEIVER_QUAL"`
	ReceiverID     string `mapstructure:"KZN_RECEIVER_ID"`
	GSSenderCode   string `mapstructure:"KZN_GS_SENDER_CODE"`
	GSReceiverCode string `mapstructure:"KZN_GS_RECEIVER_CODE"`
	UsageIndicator string `mapstructure:"KZN_USAGE_INDICATOR"`
	PayerPreset    string `mapstructure:"KZN_PAYER_PRESET"`

	CR1Locations      bool   `mapstructure:"KZN_CR1_LOCATIONS"`
	SegmentTerminator string `mapstructure:"KZN_SEGMENT_TERMINATOR"`
	ElementSeparator  string `mapstructure:"KZN_ELEMENT_SEPARATOR"`

	BatchWorkers int `mapstructure:"KZN_BATCH_WORKERS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("KZN_PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("KZN_SENDER_QUAL", "ZZ")
	v.SetDefault("KZN_RECEIVER_QUAL", "ZZ")
	v.SetDefault("KZN_USAGE_INDICATOR", "T")
	v.SetDefault("KZN_CR1_LOCATIONS", true)
	v.SetDefault("KZN_BATCH_WORKERS", 4)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("KZN_PORT")
	v.BindEnv("ENV")
	v.BindEnv("KZN_SENDER_QUAL")
	v.BindEnv("KZN_SENDER_ID")
	v.BindEnv("KZN_RECEIVER_QUAL")
	v.BindEnv("KZN_RECEIVER_ID")
	v.BindEnv("KZN_GS_SENDER_CODE")
	v.BindEnv("KZN_GS_RECEIVER_CODE")
	v.BindEnv("KZN_USAGE_INDICATOR")
	v.BindEnv("KZN_PAYER_PRESET")
	v.BindEnv("KZN_CR1_LOCATIONS")
	v.BindEnv("KZN_SEGMENT_TERMINATOR")
	v.BindEnv("KZN_ELEMENT_SEPARATOR")
	v.BindEnv("KZN_BATCH_WORKERS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.UsageIndicator != "T" && cfg.UsageIndicator != "P" {
		return nil, fmt.Errorf("KZN_USAGE_INDICATOR must be T or P, got %q", cfg.UsageIndicator)
	}

	return cfg, nil
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Pipeline maps the environment configuration onto the converter config.
func (c *Config) Pipeline() nemt837.Config {
	cr1 := c.CR1Locations
	return nemt837.Config{
		InterchangeSenderQual:   c.SenderQual,
		InterchangeSenderID:     c.SenderID,
		InterchangeReceiverQual: c.ReceiverQual,
		InterchangeReceiverID:   c.ReceiverID,
		GSSenderCode:            c.GSSenderCode,
		GSReceiverCode:          c.GSReceiverCode,
		UsageIndicator:          c.UsageIndicator,
		PayerPreset:             c.PayerPreset,
		UseCR1Locations:         &cr1,
		SegmentTerminator:       c.SegmentTerminator,
		ElementSeparator:        c.ElementSeparator,
		Workers:                 c.BatchWorkers,
	}
}
