package remote

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

// PipeConn implements ControllerConn using Pipe. Replies are matched to
// commands by sequence, and commands without a reply expire in the loop.
type PipeConn struct {
	Expiration time.Duration

	pipe Pipe

	lock    sync.Mutex
	seq     uint32
	pending map[uint32]*commandFuture
	// order keeps pending commands in the order they expire.
	order []*commandFuture
}

// NewPipeConn creates a PipeConn.
func NewPipeConn(rw PacketReadWriter) *PipeConn {
	c := &PipeConn{}
	c.Init(rw)
	return c
}

// Init initializes PipeConn with defaults.
func (c *PipeConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements ControllerConn.
func (c *PipeConn) DoCommand(msg fx.Message) CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq = 1
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.complete(Result{Err: err})
		return f
	}
	c.pending[f.seq] = f
	c.order = append(c.order, f)
	return f
}

// Do sends a command and waits for the reply. A CommandErr reply is
// returned as the error.
func Do(ctx context.Context, conn ControllerConn, msg fx.Message) (fx.Message, error) {
	select {
	case r := <-conn.DoCommand(msg).ResultChan():
		return r.Msg, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending returns the number of commands waiting for replies.
func (c *PipeConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Close closes the underlying pipe.
func (c *PipeConn) Close() error {
	return c.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (c *PipeConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *PipeConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if f == nil {
		// expired or not a reply to this connection.
		return nil
	}
	result := Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.complete(result)
	return nil
}

func (c *PipeConn) purgeExpired(cc fx.ControlContext) error {
	now := cc.Time()
	var expired []*commandFuture
	c.lock.Lock()
	n := 0
	for ; n < len(c.order); n++ {
		f := c.order[n]
		if _, ok := c.pending[f.seq]; !ok {
			continue
		}
		if f.expireAt.After(now) {
			break
		}
		delete(c.pending, f.seq)
		expired = append(expired, f)
	}
	c.order = c.order[n:]
	c.lock.Unlock()
	for _, f := range expired {
		f.complete(Result{Err: context.DeadlineExceeded})
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	result   chan Result
}

func (f *commandFuture) complete(r Result) {
	f.result <- r
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan Result {
	return f.result
}
