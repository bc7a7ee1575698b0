package slot

import (
	"strings"
	"time"

	"github.com/go-playground/errors"
)

type Config struct {
	Name string `json:"name" yaml:"name"`
	// SlotActivityCheckerInterval is in milliseconds.
	SlotActivityCheckerInterval time.Duration `json:"slotActivityCheckerInterval" yaml:"slotActivityCheckerInterval"`
	CreateIfNotExists           bool          `json:"createIfNotExists" yaml:"createIfNotExists"`
}

func (c *Config) SetDefault() {
	if c.SlotActivityCheckerInterval == 0 {
		c.SlotActivityCheckerInterval = 1000
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("slot name cannot be empty")
	}

	if c.SlotActivityCheckerInterval < 1000 {
		return errors.New("slot activity checker interval cannot be lower than 1000 ms")
	}

	return nil
}
