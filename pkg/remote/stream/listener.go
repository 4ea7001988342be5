package stream

import (
	"context"
	"net"
	"net/url"

	"github.com/golang/glog"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
)

// Listener serves remote clients over TCP.
type Listener struct {
	Addr string

	server   *remote.Server
	listener net.Listener
}

// NewListener creates a Listener on addr.
func NewListener(addr string) *Listener {
	return &Listener{Addr: addr, server: remote.NewServer()}
}

// SendEvent implements Registrar.
func (l *Listener) SendEvent(ctx context.Context, msg fx.Message) error {
	return l.server.SendEvent(ctx, msg)
}

// Listen starts listening and returns the bound address.
func (l *Listener) Listen() (net.Addr, error) {
	if l.listener == nil {
		ln, err := net.Listen("tcp", l.Addr)
		if err != nil {
			return nil, err
		}
		l.listener = ln
	}
	return l.listener.Addr(), nil
}

// Run implements Runnable.
func (l *Listener) Run(ctx context.Context) error {
	if _, err := l.Listen(); err != nil {
		return err
	}
	glog.Infof("tcp listening on %s", l.listener.Addr())
	return fx.RunWithContextCloser(ctx, l.listener, func() error {
		for {
			conn, err := l.listener.Accept()
			if err != nil {
				return err
			}
			go func() {
				glog.V(2).Infof("tcp client %s connected", conn.RemoteAddr())
				err := l.server.Serve(New(conn))
				glog.V(2).Infof("tcp client %s disconnected: %v", conn.RemoteAddr(), err)
			}()
		}
	})
}

// AddToLoop implements LoopAdder.
func (l *Listener) AddToLoop(loop *fx.Loop) {
	loop.Add(l.server)
	loop.AddRunnable(l)
}

// Dial connects to a Listener.
func Dial(ctx context.Context, addr string) (*ReadWriter, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// NewConnector creates a Connector from tcp://host:port.
func NewConnector(serverURL string) (*remote.DirectConnector, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	return &remote.DirectConnector{
		Ref: remote.ControllerRef{Type: "tcp", ID: u.Host},
		Dial: func(ctx context.Context) (remote.PacketReadWriter, error) {
			return Dial(ctx, u.Host)
		},
	}, nil
}
