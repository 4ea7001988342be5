package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
)

// Pipe exchanges Typed messages over a PacketReadWriter.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	writeLock sync.Mutex
	statsLock sync.Mutex
	stats     PipeStats
}

// PipeStats counts packets through a Pipe.
type PipeStats struct {
	Sent     uint64
	Received uint64
	// Dropped counts received packets which could not be decoded.
	Dropped uint64
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{ReadWriter: rw}
}

// Stats returns the packet counters.
func (p *Pipe) Stats() PipeStats {
	p.statsLock.Lock()
	defer p.statsLock.Unlock()
	return p.stats
}

func (p *Pipe) count(fn func(*PipeStats)) {
	p.statsLock.Lock()
	fn(&p.stats)
	p.statsLock.Unlock()
}

// SendCommandMsg sends a command or a reply with the sequence it belongs to.
func (p *Pipe) SendCommandMsg(msg fx.Message, seq uint32) error {
	return p.send(msg, msgs.TypeIDKindCommand, seq)
}

// SendEventMsg sends an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	return p.send(msg, msgs.TypeIDKindEvent, 0)
}

func (p *Pipe) send(msg fx.Message, kind uint32, seq uint32) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if typed.Kind() != kind {
		return fmt.Errorf("message %x has kind %x, expect %x", typed.TypeId, typed.Kind(), kind)
	}
	typed.Sequence = seq
	return p.SendTyped(typed)
}

// SendTyped send a Typed message.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.writeLock.Lock()
	err = p.ReadWriter.WritePacket(pkt)
	p.writeLock.Unlock()
	if err == nil {
		p.count(func(s *PipeStats) { s.Sent++ })
	}
	return err
}

// receive decodes a packet. A command which cannot be decoded is answered
// with CommandErr so the sender doesn't wait for the expiration.
func (p *Pipe) receive(ctx context.Context, pkt []byte) error {
	typed, err := msgs.DecodeTyped(pkt)
	if err != nil {
		p.count(func(s *PipeStats) { s.Dropped++ })
		glog.Warningf("drop malformed packet (%d bytes): %v", len(pkt), err)
		return nil
	}
	msg, err := typed.Decode()
	if err != nil {
		p.count(func(s *PipeStats) { s.Dropped++ })
		glog.V(2).Infof("drop message %x: %v", typed.TypeId, err)
		if typed.IsCommand() && !typed.IsReply() {
			return p.SendCommandMsg(msgs.NewCommandErr(err), typed.Sequence)
		}
		return nil
	}
	p.count(func(s *PipeStats) { s.Received++ })
	if h := p.Handler; h != nil {
		return h.HandleTypedMsg(ctx, msg, typed)
	}
	return nil
}

// Run implements Runnable. It returns when reading fails or the handler
// returns an error.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		if err = p.receive(ctx, pkt); err != nil {
			return err
		}
	}
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	switch rw := p.ReadWriter.(type) {
	case fx.LoopAdder:
		loop.Add(rw)
	case fx.Runnable:
		loop.AddRunnable(rw)
	}
	loop.AddRunnable(p)
}
