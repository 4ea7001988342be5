// Package remote connects a commutation controller to its clients.
//
// A controller registers itself through Registrars, receives commands as
// CommandMsg in its loop and publishes events. Clients find controllers
// with a Connector and send commands through a ControllerConn.
package remote

import (
	"context"
	"fmt"
	"strings"

	fx "github.com/robotalks/sixstep/pkg/framework"
)

// ControllerRef names a controller as TYPE/ID.
type ControllerRef struct {
	Type string
	ID   string
}

// ParseRef parses TYPE/ID. The ID may contain further slashes.
func ParseRef(s string) (ControllerRef, error) {
	var ref ControllerRef
	if n := strings.Index(s, "/"); n >= 0 {
		ref.Type, ref.ID = s[:n], s[n+1:]
	}
	if !ref.IsValid() {
		return ref, fmt.Errorf("invalid controller %q, expect TYPE/ID", s)
	}
	return ref, nil
}

// Name is TYPE/ID.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

func (r ControllerRef) String() string {
	return r.Name()
}

// IsValid requires both Type and ID.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published along with the registration.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is a discovered controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Registrar publishes a controller and its events.
type Registrar interface {
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	// Done sends the reply.
	Done(fx.Message) error
}

// CommandMsg carries a Command through the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Connector finds and connects controllers.
type Connector interface {
	Discover(context.Context) ([]ControllerInfo, error)
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn sends commands to a connected controller.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command, or the error when it failed.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers exactly one Result.
type CommandFuture interface {
	ResultChan() <-chan Result
}

// PacketReader reads whole packets.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes whole packets.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter combines PacketReader and PacketWriter.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
