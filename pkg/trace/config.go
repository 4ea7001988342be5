package trace

import "flag"

// Config represents configuration for the trace recorder.
type Config struct {
	// Samples is the number of level samples per timer period, 0 disables
	// sampling.
	Samples int
	// MaxPending limits the records buffered between flushes.
	MaxPending int
}

var defaultConfig = Config{
	Samples:    0,
	MaxPending: 10000,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.Samples, "trace-samples", defaultConfig.Samples, "Output level samples per timer period in trace")
	flag.IntVar(&defaultConfig.MaxPending, "trace-max-pending", defaultConfig.MaxPending, "Max trace records buffered between flushes")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewRecorder creates recorder from config.
func (c *Config) NewRecorder() *Recorder {
	return NewRecorder(c)
}
