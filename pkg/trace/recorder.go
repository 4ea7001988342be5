// Package trace records commutations as JSON lines, optionally with
// sampled output levels, for offline waveform inspection.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/robotalks/sixstep/pkg/commutation"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/timer"
)

// LevelSource provides output levels of the active bank.
type LevelSource interface {
	Period() uint32
	Levels(counter uint32) [commutation.ChannelCount]timer.PinLevels
}

// Recorder buffers commutation records and writes them in the loop.
type Recorder struct {
	Config *Config
	Writer io.Writer
	Source LevelSource

	lock     sync.Mutex
	initial  bool
	pending  []Message
	dropped  int
	faulted  bool
	faultErr error
}

// NewRecorder creates the recorder writing to stdout.
func NewRecorder(config *Config) *Recorder {
	return &Recorder{
		Config:  config,
		Writer:  os.Stdout,
		initial: true,
	}
}

// WithSource sets the level source.
func (r *Recorder) WithSource(src LevelSource) *Recorder {
	r.Source = src
	return r
}

// Commutated implements drive.Observer.
func (r *Recorder) Commutated(snap msgs.Snapshot) {
	m := ComMessage(snap)
	if src, samples := r.Source, r.Config.Samples; src != nil && samples > 0 {
		period := uint64(src.Period()) + 1
		for n := 0; n < samples; n++ {
			m.Levels = append(m.Levels, LevelString(src.Levels(uint32(period*uint64(n)/uint64(samples)))))
		}
	}
	r.lock.Lock()
	if max := r.Config.MaxPending; max > 0 && len(r.pending) >= max {
		r.dropped++
	} else {
		r.pending = append(r.pending, m)
	}
	r.lock.Unlock()
}

// Fault records the fatal error once.
func (r *Recorder) Fault(err error) {
	r.lock.Lock()
	if !r.faulted && err != nil {
		r.faulted, r.faultErr = true, err
	}
	r.lock.Unlock()
}

// AddToLoop implements LoopAdder.
func (r *Recorder) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvIdle, fx.ControlFunc(r.ReportChanges))
}

// ReportChanges is a controller to write buffered records.
func (r *Recorder) ReportChanges(cc fx.ControlContext) error {
	return r.Flush()
}

// Flush writes buffered records as a JSON array on a single line.
func (r *Recorder) Flush() error {
	var msgs []Message
	r.lock.Lock()
	if r.initial {
		reset := Message{Action: ActionReset}
		if sim, ok := r.Source.(*timer.Sim); ok {
			reset.Period = sim.Config.Period
			reset.Pulse = append(reset.Pulse, sim.Config.Pulse[:]...)
		}
		msgs = append(msgs, reset)
		r.initial = false
	}
	msgs = append(msgs, r.pending...)
	if r.dropped > 0 {
		msgs = append(msgs, Message{Action: ActionDrop, Dropped: r.dropped})
	}
	if r.faultErr != nil {
		msgs = append(msgs, Message{Action: ActionFault, Error: r.faultErr.Error()})
		r.faultErr = nil
	}
	r.pending, r.dropped = nil, 0
	r.lock.Unlock()

	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.Writer, string(encoded))
	return err
}
