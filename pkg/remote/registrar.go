package remote

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
)

// PipeRegistrar implements Registrar with a Pipe integrated with Loop.
type PipeRegistrar struct {
	pipe Pipe
}

// Init initializes the PipeRegistrar.
func (r *PipeRegistrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = postToLoop(&r.pipe)
}

// SendEvent implements Registrar.
func (r *PipeRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *PipeRegistrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// postToLoop posts commands as CommandMsg replied through pipe and
// events as-is into the loop.
func postToLoop(pipe *Pipe) msgs.TypedMsgHandler {
	return msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		loopCtl := fx.LoopCtlFrom(ctx)
		switch {
		case typed.IsReply():
			return nil
		case typed.IsCommand():
			loopCtl.PostMessage(&CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: pipe}})
		default:
			loopCtl.PostMessage(msg)
		}
		loopCtl.TriggerNext()
		return nil
	})
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux registers a controller with multiple Registrars.
type RegistrarMux struct {
	Registrars []Registrar
}

// SendEvent implements Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmdMsg, ok := mctx.CurrentMessage().(*CommandMsg); ok {
			mctx.MessageTaken()
			if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
				glog.Errorf("reply unsupported command: %v", err)
			}
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}

// Server is a Registrar accepting any number of client connections.
// Commands from every connection are posted into the loop and events are
// sent to all connections.
type Server struct {
	lock    sync.Mutex
	ctx     context.Context
	readyCh chan struct{}
	pipes   map[*Pipe]struct{}
}

// NewServer creates a Server.
func NewServer() *Server {
	return &Server{readyCh: make(chan struct{}), pipes: make(map[*Pipe]struct{})}
}

// Serve runs a pipe over rw until it fails or the loop stops.
func (s *Server) Serve(rw PacketReadWriter) error {
	<-s.readyCh
	s.lock.Lock()
	ctx := s.ctx
	pipe := NewPipe(rw)
	pipe.Handler = postToLoop(pipe)
	s.pipes[pipe] = struct{}{}
	s.lock.Unlock()
	defer func() {
		s.lock.Lock()
		delete(s.pipes, pipe)
		s.lock.Unlock()
	}()
	return fx.RunWithContextCloser(ctx, pipe, func() error {
		return pipe.Run(ctx)
	})
}

// Connections returns the number of connected clients.
func (s *Server) Connections() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.pipes)
}

// SendEvent implements Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	s.lock.Lock()
	pipes := make([]*Pipe, 0, len(s.pipes))
	for pipe := range s.pipes {
		pipes = append(pipes, pipe)
	}
	s.lock.Unlock()
	for _, pipe := range pipes {
		if err := pipe.SendTyped(typed); err != nil {
			glog.Warningf("send event: %v", err)
		}
	}
	return nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	s.lock.Lock()
	s.ctx = ctx
	s.lock.Unlock()
	close(s.readyCh)
	<-ctx.Done()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}
