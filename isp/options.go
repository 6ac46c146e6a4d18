package isp

import (
	"log/slog"

	"lautenbacher.net/avrisp/config"
)

// Phase names the stage a flash transfer is in.
type Phase string

const (
	PhaseWriting   Phase = "writing"
	PhaseVerifying Phase = "verifying"
	PhaseReading   Phase = "reading"
)

// Progress is reported after every flash page.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// ProgressCallback receives flash transfer progress.
type ProgressCallback func(Progress)

// Config holds the programmer configuration.
type Config struct {
	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// TargetClockHz derives the SCK hold time, 0 selects the default hold
	TargetClockHz int

	// PageSize is the flash page size in bytes used by WriteFlash. Zero
	// means it is looked up in the device table through the signature.
	PageSize int

	// Verify makes WriteFlash read back and compare what it wrote
	Verify bool

	ProgressCallback ProgressCallback
}

func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTargetClock sets the target CPU clock in Hz.
func WithTargetClock(hz int) Option {
	return func(c *Config) {
		if hz >= 0 {
			c.TargetClockHz = hz
		}
	}
}

// WithPageSize sets the flash page size in bytes. It must be an even power
// of two; other values are ignored.
func WithPageSize(size int) Option {
	return func(c *Config) {
		if size >= 2 && size&(size-1) == 0 {
			c.PageSize = size
		}
	}
}

func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// OptionsFromConfig turns the Target section of the configuration file into
// programmer options.
func OptionsFromConfig(conf config.TargetConfig) []Option {
	opts := []Option{
		WithTargetClock(conf.ClockHz),
		WithVerify(conf.Verify),
	}
	if conf.PageSize != 0 {
		opts = append(opts, WithPageSize(conf.PageSize))
	}
	return opts
}
