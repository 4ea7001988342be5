// Package timer simulates a three-phase advanced-control timer used as
// the output driver of the commutation sequencer.
package timer

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Config is the time base, output-compare and break configuration
// applied when the timer is initialized.
type Config struct {
	Period            uint32
	Prescaler         uint32
	ClockDivision     uint32
	RepetitionCounter uint32
	// Pulse is the compare value of CH1..CH3.
	Pulse [3]uint32

	DeadTime          uint32
	BreakEnabled      bool
	BreakPolarityHigh bool
	AutomaticOutput   bool
	OffStateRun       bool
	OffStateIdle      bool
}

// Defaults
const (
	DefaultPeriod   uint32 = 4095
	DefaultDeadTime uint32 = 1
)

var defaultConfig = Config{
	Period:            DefaultPeriod,
	Pulse:             [3]uint32{2047, 1023, 511},
	DeadTime:          DefaultDeadTime,
	BreakEnabled:      true,
	BreakPolarityHigh: true,
	AutomaticOutput:   true,
	OffStateRun:       true,
	OffStateIdle:      true,
}

func init() {
	if val := os.Getenv("SIXSTEP_TIMER_PERIOD"); val != "" {
		if n, err := strconv.ParseUint(val, 0, 32); err == nil {
			defaultConfig.Period = uint32(n)
		}
	}
}

type uint32Value struct {
	p *uint32
}

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*v.p = uint32(n)
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(uint32Value{&defaultConfig.Period}, "timer-period", "Timer auto-reload value.")
	flag.Var(uint32Value{&defaultConfig.Prescaler}, "timer-prescaler", "Timer prescaler.")
	flag.Var(uint32Value{&defaultConfig.Pulse[0]}, "timer-pulse1", "Compare value of CH1.")
	flag.Var(uint32Value{&defaultConfig.Pulse[1]}, "timer-pulse2", "Compare value of CH2.")
	flag.Var(uint32Value{&defaultConfig.Pulse[2]}, "timer-pulse3", "Compare value of CH3.")
	flag.Var(uint32Value{&defaultConfig.DeadTime}, "timer-deadtime", "Dead time in timer ticks.")
	flag.BoolVar(&defaultConfig.BreakEnabled, "timer-break", defaultConfig.BreakEnabled, "Enable break input.")
}

// MaxPeriod is the largest value of the 16-bit auto-reload register.
const MaxPeriod uint32 = 0xffff

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Period == 0 {
		return fmt.Errorf("timer period must not be 0")
	}
	if c.Period > MaxPeriod {
		return fmt.Errorf("timer period %d exceeds %d", c.Period, MaxPeriod)
	}
	for n, pulse := range c.Pulse {
		if pulse > c.Period {
			return fmt.Errorf("CH%d pulse %d exceeds period %d", n+1, pulse, c.Period)
		}
	}
	if c.DeadTime > c.Period {
		return fmt.Errorf("dead time %d exceeds period %d", c.DeadTime, c.Period)
	}
	return nil
}

// NewSim creates the simulated timer from config.
func (c *Config) NewSim() (*Sim, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewSim(*c), nil
}
