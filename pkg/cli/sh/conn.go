package sh

import (
	"context"
	"io"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
)

const eventsBuffer = 64

// ConnLoop runs the loop of a controller connection in background.
// Events from the controller are kept in Events, dropping the oldest when
// nobody watches.
type ConnLoop struct {
	Ref    remote.ControllerRef
	Conn   remote.ControllerConn
	Loop   *fx.Loop
	Events chan fx.Message

	cancel func()
}

// Dial connects ref through connector and starts the loop.
func Dial(connector remote.Connector, ref remote.ControllerRef) (*ConnLoop, error) {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return nil, err
	}
	l := &ConnLoop{
		Ref:    ref,
		Conn:   conn,
		Loop:   fx.NewLoop(),
		Events: make(chan fx.Message, eventsBuffer),
		cancel: cancel,
	}
	if adder, ok := conn.(fx.LoopAdder); ok {
		l.Loop.Add(adder)
	}
	l.Loop.AddController(fx.PrLvNormal, fx.ControlFunc(l.collectEvents))
	go l.Loop.Run(ctx)
	return l, nil
}

// Close stops the loop and closes the connection.
func (l *ConnLoop) Close() error {
	l.cancel()
	if closer, ok := l.Conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (l *ConnLoop) collectEvents(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		mctx.MessageTaken()
		l.keep(mctx.CurrentMessage())
	}))
	return nil
}

func (l *ConnLoop) keep(msg fx.Message) {
	for {
		select {
		case l.Events <- msg:
			return
		default:
		}
		select {
		case <-l.Events:
		default:
		}
	}
}
