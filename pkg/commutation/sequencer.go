package commutation

import (
	"sync"

	"github.com/golang/glog"
)

// FaultHandler receives the fatal error which halted a sequencer.
type FaultHandler interface {
	Fault(error)
}

// FaultFunc is the func form of FaultHandler.
type FaultFunc func(error)

// Fault implements FaultHandler.
func (f FaultFunc) Fault(err error) {
	f(err)
}

// Sequencer advances the commutation table on each commutation event.
type Sequencer struct {
	driver Driver
	fault  FaultHandler

	lock   sync.Mutex
	step   Step
	events uint64
	err    error
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithFaultHandler sets the handler invoked once on a fatal error.
func WithFaultHandler(h FaultHandler) Option {
	return func(s *Sequencer) {
		s.fault = h
	}
}

// NewSequencer creates a Sequencer at StepEntry.
func NewSequencer(driver Driver, opts ...Option) *Sequencer {
	s := &Sequencer{driver: driver, step: StepEntry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnCommutationEvent runs the row of the current step and advances.
// After a driver failure the sequencer is halted: no more commands are
// issued and ErrHalted is returned.
func (s *Sequencer) OnCommutationEvent() error {
	s.lock.Lock()
	if s.err != nil {
		s.lock.Unlock()
		return ErrHalted
	}
	row := table[s.step]
	for _, cmd := range row.Commands {
		glog.V(3).Infof("%s: %s", row.Step, cmd)
		if err := Execute(s.driver, cmd); err != nil {
			failure := &DriverCommandFailure{Step: row.Step, Command: cmd, Err: err}
			s.err = failure
			fault := s.fault
			s.lock.Unlock()
			glog.Errorf("commutation halted: %v", failure)
			if fault != nil {
				fault.Fault(failure)
			}
			return failure
		}
	}
	s.step = row.Next
	s.events++
	s.lock.Unlock()
	return nil
}

// Step returns the step whose row runs on the next event.
func (s *Sequencer) Step() Step {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.step
}

// Events returns the number of completed commutation events.
func (s *Sequencer) Events() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.events
}

// Halted indicates a fatal driver failure happened.
func (s *Sequencer) Halted() bool {
	return s.Err() != nil
}

// Err returns the fatal error if halted.
func (s *Sequencer) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.err
}
