package bridge

import (
	"flag"
	"os"
	"time"

	"github.com/tarm/serial"
)

// SerialReadTimeout is the read timeout of a serial port link.
const SerialReadTimeout = 100 * time.Millisecond

// SerialConfig selects the serial port of a link.
type SerialConfig struct {
	// Device is the serial port, empty to disable.
	Device string
	Baud   int
}

var defaultSerialConfig = SerialConfig{
	Baud: 115200,
}

func init() {
	if val := os.Getenv("SIXSTEP_SERIAL"); val != "" {
		defaultSerialConfig.Device = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultSerialConfig.Device, "serial", defaultSerialConfig.Device, "Serial port of the board link.")
	flag.IntVar(&defaultSerialConfig.Baud, "baud", defaultSerialConfig.Baud, "Serial port baud rate.")
}

// NewSerialConfig creates the default serial configuration.
func NewSerialConfig() *SerialConfig {
	conf := defaultSerialConfig
	return &conf
}

// Open opens the serial port and creates a Link over it.
func (c *SerialConfig) Open() (*Link, *serial.Port, error) {
	return OpenSerial(c.Device, c.Baud)
}

// OpenSerial opens a serial port and creates a Link over it.
func OpenSerial(name string, baud int) (*Link, *serial.Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: SerialReadTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	link := NewLink(port)
	link.ReadTimeout = true
	return link, port, nil
}
