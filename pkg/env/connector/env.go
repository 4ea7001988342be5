// Package connector sets up the Connector of a client.
package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/sixstep/pkg/remote"
	"github.com/robotalks/sixstep/pkg/remote/mqtt"
	"github.com/robotalks/sixstep/pkg/remote/stream"
	"github.com/robotalks/sixstep/pkg/remote/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref remote.ControllerRef

	// RegistryURL specifies where controllers are found.
	// e.g. mqtt://host:port/topic-prefix, ws://host:port, tcp://host:port
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/sixstep/",
}

func init() {
	if val := os.Getenv("SIXSTEP_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("SIXSTEP_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("SIXSTEP_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "controller-type", defaultConfig.Ref.Type, "Controller type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "controller-id", defaultConfig.Ref.ID, "Controller ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "reg", defaultConfig.RegistryURL, "Controller registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (remote.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "ssl":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws":
		return websocket.NewConnector(c.RegistryURL)
	case "tcp":
		return stream.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() remote.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the controller in Ref.
func (c *Config) Connect(ctx context.Context) (remote.ControllerConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	if _, direct := connector.(*remote.DirectConnector); !direct && !c.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	return connector.Connect(ctx, c.Ref)
}

// MustConnect connects to the controller and fails on error.
func (c *Config) MustConnect(ctx context.Context) remote.ControllerConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
