// Package drive runs the commutation sequencer against a timer and exposes
// it to remote clients.
//
// Commutation events are produced by a runnable ticking every Interval
// while running. Each event runs the sequencer, which preloads the next
// step, and then commutates the timer. Commands are handled in the loop at
// PrLvCommand and state changes are reported at PrLvReport.
package drive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/fault"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/remote"
)

// ErrNotReady is returned while the target can't take commands. It is not
// a fault: nothing was sent to the target.
var ErrNotReady = errors.New("target not ready")

// Observer is notified after every commutation.
type Observer interface {
	Commutated(msgs.Snapshot)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(msgs.Snapshot)

// Commutated implements Observer.
func (f ObserverFunc) Commutated(s msgs.Snapshot) {
	f(s)
}

// Controller drives a Target through the six-step sequence.
type Controller struct {
	Config    Config
	Registrar remote.Registrar
	Observer  Observer

	halter *fault.Halter
	target *tracker
	seq    *commutation.Sequencer

	fireLock sync.Mutex

	lock     sync.Mutex
	running  bool
	interval time.Duration
	runCh    chan struct{}

	// accessed in loop only.
	reported     bool
	lastReport   time.Time
	lastReported msgs.Snapshot
	faultSent    bool
}

// NewController creates a Controller with default config.
func NewController(target Target, halter *fault.Halter) *Controller {
	if halter == nil {
		halter = fault.NewHalter(nil)
	}
	c := &Controller{
		Config:   *NewConfig(),
		halter:   halter,
		target:   &tracker{Target: target},
		runCh:    make(chan struct{}, 1),
		interval: defaultConfig.Interval,
	}
	c.seq = commutation.NewSequencer(c.target, commutation.WithFaultHandler(c))
	return c
}

// Sequencer returns the sequencer.
func (c *Controller) Sequencer() *commutation.Sequencer {
	return c.seq
}

// Halter returns the fault halter.
func (c *Controller) Halter() *fault.Halter {
	return c.halter
}

// Fault implements commutation.FaultHandler. The error is latched by the
// halter and periodic events stop.
func (c *Controller) Fault(err error) {
	if err == nil {
		return
	}
	c.halter.Fault(err)
	c.SetRunning(false, 0)
}

// Ready reports whether the target takes commands.
func (c *Controller) Ready() bool {
	return c.target.Ready()
}

// Running returns whether periodic events are produced and the interval.
func (c *Controller) Running() (bool, time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.running, c.interval
}

// SetRunning starts or stops periodic events. A non-positive interval
// keeps the current one.
func (c *Controller) SetRunning(running bool, interval time.Duration) {
	c.lock.Lock()
	c.running = running
	if interval > 0 {
		c.interval = interval
	}
	c.lock.Unlock()
	select {
	case c.runCh <- struct{}{}:
	default:
	}
}

// Advance produces count commutation events immediately.
func (c *Controller) Advance(count uint32) error {
	if max := c.Config.MaxAdvance; max > 0 && count > max {
		return fmt.Errorf("advance count %d exceeds %d", count, max)
	}
	if !c.Ready() {
		return ErrNotReady
	}
	for n := uint32(0); n < count; n++ {
		if err := c.fire(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() msgs.Snapshot {
	running, interval := c.Running()
	return msgs.Snapshot{
		Step:       c.seq.Step(),
		Events:     c.seq.Events(),
		Err:        c.halter.Err(),
		Active:     c.target.Active(),
		Running:    running,
		IntervalUs: uint32(interval / time.Microsecond),
	}
}

func (c *Controller) fire() error {
	c.fireLock.Lock()
	defer c.fireLock.Unlock()
	if c.halter.Faulted() {
		return commutation.ErrHalted
	}
	if !c.target.Ready() {
		return ErrNotReady
	}
	if err := c.seq.OnCommutationEvent(); err != nil {
		return err
	}
	if err := c.target.Commutate(); err != nil {
		err = fmt.Errorf("commutate: %w", err)
		c.Fault(err)
		return err
	}
	if glog.V(3) {
		glog.Infof("COM #%d: %s", c.seq.Events(), c.target.Active())
	}
	if o := c.Observer; o != nil {
		o.Commutated(c.Snapshot())
	}
	return nil
}

// Run implements Runnable. It produces commutation events while running.
func (c *Controller) Run(ctx context.Context) error {
	var ticker *time.Ticker
	var tickCh <-chan time.Time
	var curInterval time.Duration
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickCh = nil, nil
		}
	}
	defer stop()
	for {
		running, interval := c.Running()
		if !running || interval != curInterval {
			stop()
		}
		if running && ticker == nil {
			curInterval = interval
			ticker = time.NewTicker(interval)
			tickCh = ticker.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.runCh:
		case <-tickCh:
			switch err := c.fire(); err {
			case nil, commutation.ErrHalted:
			case ErrNotReady:
				glog.V(2).Info("commutation event skipped, target not ready")
			default:
				glog.V(1).Infof("commutation event failed: %v", err)
			}
		}
	}
}

// HandleCommand handles commands at PrLvCommand.
func (c *Controller) HandleCommand(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*remote.CommandMsg)
		if !ok {
			return
		}
		var reply fx.Message
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.StateQuery:
			reply = c.stateReply()
		case *msgs.Advance:
			if err := c.Advance(m.Count); err != nil {
				reply = msgs.NewCommandErr(err)
			} else {
				reply = c.stateReply()
			}
		case *msgs.RunControl:
			switch {
			case m.Running && c.halter.Faulted():
				reply = msgs.NewCommandErr(commutation.ErrHalted)
			case m.Running && !c.Ready():
				reply = msgs.NewCommandErr(ErrNotReady)
			default:
				c.SetRunning(m.Running, time.Duration(m.IntervalUs)*time.Microsecond)
				reply = c.stateReply()
			}
		default:
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply error: %v", err)
		}
		cc.TriggerNext()
	}))
	return nil
}

func (c *Controller) stateReply() *msgs.State {
	return &msgs.State{State: msgs.StateFrom(c.Snapshot())}
}

// Report sends state changes and the fault at PrLvReport.
func (c *Controller) Report(cc fx.ControlContext) error {
	if c.Registrar == nil {
		return nil
	}
	snap := c.Snapshot()
	force := false
	if snap.Err != nil && !c.faultSent {
		c.faultSent, force = true, true
		if err := c.Registrar.SendEvent(cc.Context(), msgs.NewFaultEvent(snap.Err)); err != nil {
			glog.Warningf("send fault event error: %v", err)
		}
	}
	if c.reported && !force && !changed(c.lastReported, snap) {
		return nil
	}
	if !force && c.reported && cc.Time().Sub(c.lastReport) < c.Config.ReportInterval {
		return nil
	}
	if err := c.Registrar.SendEvent(cc.Context(), &msgs.StateEvent{State: msgs.StateFrom(snap)}); err != nil {
		glog.Warningf("send state event error: %v", err)
		return nil
	}
	c.reported, c.lastReport, c.lastReported = true, cc.Time(), snap
	return nil
}

func changed(a, b msgs.Snapshot) bool {
	return a.Events != b.Events ||
		a.Running != b.Running ||
		a.IntervalUs != b.IntervalUs ||
		(a.Err == nil) != (b.Err == nil)
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddRunnable(c, c.halter)
	l.AddController(fx.PrLvCommand, fx.ControlFunc(c.HandleCommand))
	l.AddController(fx.PrLvReport, fx.ControlFunc(c.Report))
}
