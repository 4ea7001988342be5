package bridge

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// PacketHandler is called when a packet is received.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// StateNotifier is called when the link state changed.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// DefaultSyncTimeout is the default time to wait for a sync reply.
const DefaultSyncTimeout = 100 * time.Millisecond

// Link sends and receives packets over a byte stream.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    PacketHandler
	Notifier   StateNotifier
	Timeout    time.Duration
	// ReadTimeout is set when Read on ReadWriter returns after a timeout.
	// A timed out Read may report a timeout error, io.EOF or zero bytes.
	ReadTimeout bool

	seq   PacketSeq
	state SyncState
	lock  sync.RWMutex

	syncTimer <-chan time.Time
	parser    Parser
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    DefaultSyncTimeout,
		seq:        NewPacketSeq(),
	}
}

// State gets the state.
func (l *Link) State() SyncState {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.state
}

// Send sends a packet and assigns its sequence number.
func (l *Link) Send(pkt *Packet) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return ErrNotReady
	}
	pkt.Seq = l.seq
	if _, err := pkt.WriteTo(l.ReadWriter); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Run processes the link until ctx is done or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	if err := l.applyParseResult(ctx, l.parser.Reset()); err != nil {
		return err
	}
	if l.ReadTimeout {
		return l.runPolling(ctx)
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		var err error
		select {
		case b := <-byteCh:
			err = l.applyParseResult(ctx, l.parser.Parse(b))
		case err = <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-l.syncTimer:
			err = l.applyParseResult(ctx, l.parser.Timeout())
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) runPolling(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.syncTimer:
			if err := l.applyParseResult(ctx, l.parser.Timeout()); err != nil {
				return err
			}
			continue
		default:
		}
		n, err := l.ReadWriter.Read(buf)
		switch {
		case err != nil && !isReadTimeout(err):
			return err
		case n == 0:
			err = l.applyParseResult(ctx, l.parser.Timeout())
		default:
			err = l.applyParseResult(ctx, l.parser.Parse(buf[0]))
		}
		if err != nil {
			return err
		}
	}
}

func isReadTimeout(err error) bool {
	return err == io.EOF || os.IsTimeout(err)
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		_, err := l.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) applyParseResult(ctx context.Context, pr ParseResult) (err error) {
	var notifier StateNotifier
	changed := false
	l.lock.Lock()
	if l.state != pr.State {
		l.state, changed = pr.State, true
		notifier = l.Notifier
	}
	if pr.Sync != 0 {
		_, err = l.ReadWriter.Write([]byte{pr.Sync, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return
	}

	if l.ReadTimeout {
		if pr.Sync == syncREQ {
			l.syncTimer = time.After(l.Timeout)
		} else {
			l.syncTimer = nil
		}
	} else {
		switch pr.WhatAboutTimer() {
		case TimerRestart:
			l.syncTimer = time.After(l.Timeout)
		case TimerStop:
			l.syncTimer = nil
		}
	}

	if changed {
		glog.V(2).Infof("link %s", pr.State)
	}
	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Packet != nil {
		if h := l.Handler; h != nil {
			h.HandlePacket(ctx, pr.Packet)
		}
	}
	return
}
