package drive

import (
	"sync"

	"github.com/robotalks/sixstep/pkg/commutation"
)

// Target is the timer driven by the controller.
type Target interface {
	commutation.Driver
	// Commutate transfers preloaded channel configuration to the outputs.
	Commutate() error
}

// ReadyChecker is implemented by targets which can't take commands until
// connected, e.g. bridge.Driver before the link is synchronized.
type ReadyChecker interface {
	Ready() bool
}

// tracker mirrors the preload and active banks of a Target so state can be
// reported regardless of the target implementation.
type tracker struct {
	Target

	lock    sync.Mutex
	preload commutation.Activation
	active  commutation.Activation
}

func (t *tracker) SetChannelMode(ch commutation.Channel, mode commutation.Mode) error {
	return t.apply(commutation.SetMode(ch, mode), t.Target.SetChannelMode(ch, mode))
}

func (t *tracker) EnableChannel(ch commutation.Channel, out commutation.Output) error {
	return t.apply(commutation.Enable(ch, out), t.Target.EnableChannel(ch, out))
}

func (t *tracker) DisableChannel(ch commutation.Channel, out commutation.Output) error {
	return t.apply(commutation.Disable(ch, out), t.Target.DisableChannel(ch, out))
}

func (t *tracker) apply(cmd commutation.Command, err error) error {
	if err != nil {
		return err
	}
	t.lock.Lock()
	t.preload.Apply(cmd)
	t.lock.Unlock()
	return nil
}

func (t *tracker) Commutate() error {
	if err := t.Target.Commutate(); err != nil {
		return err
	}
	t.lock.Lock()
	t.active = t.preload
	t.lock.Unlock()
	return nil
}

func (t *tracker) Active() commutation.Activation {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.active
}

func (t *tracker) Ready() bool {
	if rc, ok := t.Target.(ReadyChecker); ok {
		return rc.Ready()
	}
	return true
}
