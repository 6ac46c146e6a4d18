package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

const (
	BackendRPIO   = "rpio"
	BackendPeriph = "periph.io"
)

// MaxPin is the highest BCM GPIO number of the Raspberry Pi header.
const MaxPin = 53

type Config struct {
	Link    LinkConfig    `yaml:"Link"`
	Target  TargetConfig  `yaml:"Target"`
	Logging LoggingConfig `yaml:"Logging"`
}

type LinkConfig struct {
	Backend string    `yaml:"Backend"`
	Pins    PinConfig `yaml:"Pins"`
}

// PinConfig holds the BCM GPIO numbers of the four link lines.
type PinConfig struct {
	Clock   int `yaml:"Clock"`
	DataOut int `yaml:"DataOut"`
	DataIn  int `yaml:"DataIn"`
	Reset   int `yaml:"Reset"`
}

type TargetConfig struct {
	// ClockHz is the target CPU clock, used to derive the SCK hold time.
	// Zero selects the default hold.
	ClockHz int `yaml:"ClockHz"`
	// PageSize in bytes, zero means it is taken from the device table.
	PageSize int  `yaml:"PageSize"`
	Verify   bool `yaml:"Verify"`
}

type LoggingConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't find config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Config{
		Link:    LinkConfig{Backend: BackendRPIO},
		Logging: LoggingConfig{Level: "INFO", Format: "text"},
	}
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return &conf, nil
}

// Validate checks the configuration and returns all problems found joined
// into one error.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Link.Backend) {
	case BackendRPIO, BackendPeriph:
	default:
		errs = append(errs, fmt.Errorf("Link.Backend %q must be %q or %q", c.Link.Backend, BackendRPIO, BackendPeriph))
	}

	pins := map[string]int{
		"Clock":   c.Link.Pins.Clock,
		"DataOut": c.Link.Pins.DataOut,
		"DataIn":  c.Link.Pins.DataIn,
		"Reset":   c.Link.Pins.Reset,
	}
	used := make(map[int]string, len(pins))
	for _, name := range []string{"Clock", "DataOut", "DataIn", "Reset"} {
		pin := pins[name]
		if pin < 0 || pin > MaxPin {
			errs = append(errs, fmt.Errorf("Link.Pins.%s (%d) must be between 0 and %d", name, pin, MaxPin))
			continue
		}
		if other, found := used[pin]; found {
			errs = append(errs, fmt.Errorf("Link.Pins.%s and Link.Pins.%s both use GPIO%d", other, name, pin))
			continue
		}
		used[pin] = name
	}

	if c.Target.ClockHz < 0 {
		errs = append(errs, fmt.Errorf("Target.ClockHz (%d) must not be negative", c.Target.ClockHz))
	}
	if ps := c.Target.PageSize; ps != 0 && (ps < 2 || ps > 512 || ps&(ps-1) != 0) {
		errs = append(errs, fmt.Errorf("Target.PageSize (%d) must be 0 or a power of two between 2 and 512", ps))
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("Logging.Level %q must be one of DEBUG, INFO, WARN, ERROR", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("Logging.Format %q must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}
