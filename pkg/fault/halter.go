// Package fault provides the fatal error path: once faulted, an
// indicator keeps toggling until shutdown and nothing else is attempted.
package fault

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Indicator is a visible signal, e.g. an LED.
type Indicator interface {
	Toggle() error
}

// LogIndicator logs each toggle.
type LogIndicator struct {
	Name string

	on bool
}

// Toggle implements Indicator.
func (i *LogIndicator) Toggle() error {
	i.on = !i.on
	state := "off"
	if i.on {
		state = "on"
	}
	glog.Warningf("%s %s", i.Name, state)
	return nil
}

// DefaultBlinkPeriod is the indicator toggle period once faulted.
const DefaultBlinkPeriod = time.Second

// Halter latches the first fatal error and blinks an indicator.
type Halter struct {
	Indicator   Indicator
	BlinkPeriod time.Duration
	// OnFault, if set, is called once with the latched error.
	OnFault func(error)

	lock     sync.Mutex
	err      error
	faultCh  chan struct{}
	initOnce sync.Once
}

// NewHalter creates a Halter.
func NewHalter(indicator Indicator) *Halter {
	return &Halter{Indicator: indicator, BlinkPeriod: DefaultBlinkPeriod}
}

func (h *Halter) init() {
	h.initOnce.Do(func() {
		h.faultCh = make(chan struct{})
	})
}

// Fault implements commutation.FaultHandler. Only the first error is kept.
func (h *Halter) Fault(err error) {
	if err == nil {
		return
	}
	h.init()
	h.lock.Lock()
	if h.err != nil {
		h.lock.Unlock()
		return
	}
	h.err = err
	close(h.faultCh)
	onFault := h.OnFault
	h.lock.Unlock()
	glog.Errorf("FATAL: %v", err)
	if onFault != nil {
		onFault(err)
	}
}

// Faulted indicates a fatal error happened.
func (h *Halter) Faulted() bool {
	return h.Err() != nil
}

// Err returns the latched error.
func (h *Halter) Err() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.err
}

// Done returns a chan closed when faulted.
func (h *Halter) Done() <-chan struct{} {
	h.init()
	return h.faultCh
}

// Run implements Runnable. It waits for a fault and then toggles the
// indicator every BlinkPeriod until ctx is done.
func (h *Halter) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.Done():
	}
	period := h.BlinkPeriod
	if period <= 0 {
		period = DefaultBlinkPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if ind := h.Indicator; ind != nil {
			if err := ind.Toggle(); err != nil {
				glog.Errorf("indicator error: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
