package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`

	SnapshotEverySec int `yaml:"snapshot_every_sec"`

	DefaultRoom string `yaml:"default_room"`

	Trading Trading `yaml:"trading"`
	WS      WS      `yaml:"ws"`
}

type Trading struct {
	Enabled bool `yaml:"enabled"`
	// MaxOfferItems bounds one party's offer; 0 means unlimited.
	MaxOfferItems int `yaml:"max_offer_items"`
}

type WS struct {
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	OutQueue        int `yaml:"out_queue"`
}

func Defaults() Config {
	return Config{
		Addr:             ":8080",
		DataDir:          "./data",
		SnapshotEverySec: 300,
		DefaultRoom:      "lobby",
		Trading: Trading{
			Enabled:       true,
			MaxOfferItems: 65,
		},
		WS: WS{
			ReadTimeoutSec:  60,
			WriteTimeoutSec: 5,
			OutQueue:        32,
		},
	}
}

// Load reads yaml settings over the defaults; absent keys keep default values.
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("hotel.yaml: %w", err)
	}
	c.applyBounds()
	return c, nil
}

func (c *Config) applyBounds() {
	if c.SnapshotEverySec <= 0 {
		c.SnapshotEverySec = 300
	}
	if c.WS.ReadTimeoutSec <= 0 {
		c.WS.ReadTimeoutSec = 60
	}
	if c.WS.WriteTimeoutSec <= 0 {
		c.WS.WriteTimeoutSec = 5
	}
	if c.WS.OutQueue <= 0 {
		c.WS.OutQueue = 32
	}
	if c.WS.OutQueue > 256 {
		c.WS.OutQueue = 256
	}
	if c.Trading.MaxOfferItems < 0 {
		c.Trading.MaxOfferItems = 0
	}
	if c.DefaultRoom == "" {
		c.DefaultRoom = "lobby"
	}
}
