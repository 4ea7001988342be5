package remote

import (
	"context"
)

// DialFunc opens a packet connection to a controller.
type DialFunc func(context.Context) (PacketReadWriter, error)

// DirectConnector connects to a single controller at a known address.
type DirectConnector struct {
	Ref  ControllerRef
	Dial DialFunc
}

// Discover implements Connector.
func (c *DirectConnector) Discover(context.Context) ([]ControllerInfo, error) {
	return []ControllerInfo{{Ref: c.Ref}}, nil
}

// Connect implements Connector. The ref is ignored as the address
// identifies the controller.
func (c *DirectConnector) Connect(ctx context.Context, ref ControllerRef) (ControllerConn, error) {
	rw, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return NewPipeConn(rw), nil
}
