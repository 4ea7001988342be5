package websocket

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
)

// Path is the HTTP path of the websocket endpoint.
const Path = "/sixstep"

// Server serves remote clients over websocket.
type Server struct {
	Addr string

	server   *remote.Server
	listener net.Listener
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, server: remote.NewServer()}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)
		err := s.server.Serve(New(conn))
		glog.V(2).Infof("websocket client %s disconnected: %v", conn.Request().RemoteAddr, err)
	})
}

// SendEvent implements Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	return s.server.SendEvent(ctx, msg)
}

// Listen starts listening. It's optional before Run and useful to get
// the bound address.
func (s *Server) Listen() (net.Addr, error) {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.Addr)
		if err != nil {
			return nil, err
		}
		s.listener = ln
	}
	return s.listener.Addr(), nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(Path, s.Handler())
	srv := &http.Server{Handler: mux}
	glog.Infof("websocket listening on %s%s", s.listener.Addr(), Path)
	err := fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(s.listener)
	})
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.Add(s.server)
	loop.AddRunnable(s)
}

// Dial connects to a websocket Server.
func Dial(ctx context.Context, serverURL string) (*ReadWriter, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = Path
	}
	origin := "http://" + u.Host
	conf, err := websocket.NewConfig(u.String(), origin)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v", u, err)
	}
	return New(conn), nil
}

// NewConnector creates a Connector to the controller at serverURL.
func NewConnector(serverURL string) (*remote.DirectConnector, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	return &remote.DirectConnector{
		Ref: remote.ControllerRef{Type: "ws", ID: u.Host},
		Dial: func(ctx context.Context) (remote.PacketReadWriter, error) {
			return Dial(ctx, serverURL)
		},
	}, nil
}
