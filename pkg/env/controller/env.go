// Package controller sets up the registrars of a commutation controller.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/sixstep/pkg/env"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
	"github.com/robotalks/sixstep/pkg/remote/mqtt"
	"github.com/robotalks/sixstep/pkg/remote/stream"
	"github.com/robotalks/sixstep/pkg/remote/websocket"
)

// DefaultType is the default controller type.
const DefaultType = "sixstep"

// Config provides common options to setup an env for controllers.
type Config struct {
	Info remote.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketAddr is the listen address of the websocket endpoint.
	WebsocketAddr string
	// TCPAddr is the listen address for length-prefixed TCP clients.
	TCPAddr string
}

var defaultConfig = Config{
	Info: remote.ControllerInfo{
		Ref: remote.ControllerRef{Type: DefaultType},
		Meta: remote.ControllerMeta{
			Description: "six-step commutation controller",
		},
	},
	MQTTBrokerURL: "mqtt://localhost:1883/sixstep/",
}

func init() {
	defaultConfig.Info.Ref.ID = env.MachineID()
	if val := os.Getenv("SIXSTEP_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SIXSTEP_TYPE"); val != "" {
		defaultConfig.Info.Ref.Type = val
	}
	if val := os.Getenv("SIXSTEP_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
}

// SetControllerType sets the controller type and metadata before flags
// are parsed. SIXSTEP_TYPE still takes precedence.
func SetControllerType(typ string, meta remote.ControllerMeta) {
	if os.Getenv("SIXSTEP_TYPE") == "" {
		defaultConfig.Info.Ref.Type = typ
	}
	defaultConfig.Info.Meta = meta
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address, e.g. :8080")
	flag.StringVar(&defaultConfig.TCPAddr, "tcp", defaultConfig.TCPAddr, "TCP listen address, e.g. :7070")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the env for controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *remote.RegistrarMux
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	env := &Env{
		Config:    c,
		Registrar: &remote.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" {
		env.Registrar.Add(websocket.NewServer(c.WebsocketAddr))
		env.RegistryURLs = append(env.RegistryURLs, "ws://"+c.WebsocketAddr+websocket.Path)
	}
	if c.TCPAddr != "" {
		env.Registrar.Add(stream.NewListener(c.TCPAddr))
		env.RegistryURLs = append(env.RegistryURLs, "tcp://"+c.TCPAddr)
	}
	if len(env.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one registrar is required")
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds registrars and the fallback for unsupported commands.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.Add(&remote.UnsupportedCommands{})
}
