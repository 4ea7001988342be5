package timer

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sixstep/pkg/commutation"
)

// Sim is a simulated timer with preload and active register banks.
// Channel commands write the preload bank; Commutate transfers it to the
// active bank at once, like the hardware COM event.
type Sim struct {
	Config Config
	// Reject, if set, is consulted before a command is accepted. A non-nil
	// error rejects the command and leaves the registers untouched.
	Reject func(commutation.Command) error

	lock    sync.Mutex
	preload commutation.Activation
	active  commutation.Activation
	trace   []commutation.Command
	coms    uint64
}

// PinLevels is the level of the main and complementary pins of a channel.
type PinLevels struct {
	Main          bool
	Complementary bool
}

// NewSim creates a Sim.
func NewSim(conf Config) *Sim {
	return &Sim{Config: conf}
}

// SetChannelMode implements commutation.Driver.
func (s *Sim) SetChannelMode(ch commutation.Channel, mode commutation.Mode) error {
	return s.write(commutation.SetMode(ch, mode))
}

// EnableChannel implements commutation.Driver.
func (s *Sim) EnableChannel(ch commutation.Channel, out commutation.Output) error {
	return s.write(commutation.Enable(ch, out))
}

// DisableChannel implements commutation.Driver.
func (s *Sim) DisableChannel(ch commutation.Channel, out commutation.Output) error {
	return s.write(commutation.Disable(ch, out))
}

func (s *Sim) write(cmd commutation.Command) error {
	if !cmd.Channel.IsValid() {
		return fmt.Errorf("invalid channel %d", int(cmd.Channel))
	}
	if reject := s.Reject; reject != nil {
		if err := reject(cmd); err != nil {
			return err
		}
	}
	s.lock.Lock()
	s.preload.Apply(cmd)
	s.trace = append(s.trace, cmd)
	s.lock.Unlock()
	return nil
}

// Commutate transfers the preload bank to the active bank.
func (s *Sim) Commutate() error {
	s.lock.Lock()
	s.active = s.preload
	s.coms++
	active := s.active
	s.lock.Unlock()
	if glog.V(3) {
		glog.Infof("COM: %s", active)
	}
	return nil
}

// Preload returns the staged activation.
func (s *Sim) Preload() commutation.Activation {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.preload
}

// Active returns the activation driving the outputs.
func (s *Sim) Active() commutation.Activation {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.active
}

// Commutations returns the number of COM events.
func (s *Sim) Commutations() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.coms
}

// Trace returns the commands accepted since creation or last Reset.
func (s *Sim) Trace() []commutation.Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]commutation.Command(nil), s.trace...)
}

// Reset clears both register banks and the trace.
func (s *Sim) Reset() {
	s.lock.Lock()
	s.preload, s.active = commutation.Activation{}, commutation.Activation{}
	s.trace, s.coms = nil, 0
	s.lock.Unlock()
}

// Levels returns the pin levels of the active bank at a counter value
// of an up-counting period.
//
// In PWM mode the reference is high while counter < pulse. Timing mode
// keeps the reference low. A disabled pin is at its inactive level.
// Dead time delays rising edges only in PWM mode when both pins of a
// channel are enabled.
func (s *Sim) Levels(counter uint32) (levels [commutation.ChannelCount]PinLevels) {
	s.lock.Lock()
	active := s.active
	s.lock.Unlock()
	cnt := uint64(counter) % (uint64(s.Config.Period) + 1)
	dt := uint64(s.Config.DeadTime)
	for n, st := range active {
		pwm := st.Mode == commutation.ModePWM
		pulse := uint64(s.Config.Pulse[n])
		ref := pwm && cnt < pulse
		main, comp := ref, !ref
		if pwm && st.Main && st.Complementary && dt > 0 {
			main = ref && cnt >= dt
			comp = !ref && cnt >= pulse+dt
		}
		levels[n].Main = st.Main && main
		levels[n].Complementary = st.Complementary && comp
	}
	return
}

// Period returns the counter period.
func (s *Sim) Period() uint32 {
	return s.Config.Period
}
