package drive

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robotalks/sixstep/pkg/fault"
)

// Config defines the configuration of the drive controller.
type Config struct {
	// Interval is the period of commutation events while running.
	Interval time.Duration
	// ReportInterval throttles state events.
	ReportInterval time.Duration
	// AutoStart starts periodic commutation events on startup.
	AutoStart bool
	// MaxAdvance limits the events of a single Advance command.
	MaxAdvance uint32
}

// Defaults
const (
	DefaultInterval       = time.Millisecond
	DefaultReportInterval = 100 * time.Millisecond
	DefaultMaxAdvance     = 6000
)

var defaultConfig = Config{
	Interval:       DefaultInterval,
	ReportInterval: DefaultReportInterval,
	MaxAdvance:     DefaultMaxAdvance,
}

func init() {
	if val := os.Getenv("SIXSTEP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.Interval = d
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Commutation event interval.")
	flag.DurationVar(&defaultConfig.ReportInterval, "report-interval", defaultConfig.ReportInterval, "Minimum interval between state events.")
	flag.BoolVar(&defaultConfig.AutoStart, "autostart", defaultConfig.AutoStart, "Start commutation events on startup.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("invalid interval %v", c.Interval)
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("invalid report interval %v", c.ReportInterval)
	}
	return nil
}

// NewController creates the Controller.
func (c *Config) NewController(target Target, halter *fault.Halter) (*Controller, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctl := NewController(target, halter)
	ctl.Config = *c
	ctl.interval = c.Interval
	ctl.running = c.AutoStart
	return ctl, nil
}
