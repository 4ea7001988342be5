// Package commutation sequences the six-step commutation pattern of a
// three-phase timer.
package commutation

import (
	"fmt"
	"strings"
)

// Step identifies the row of the commutation table to run on the next event.
type Step int

// Steps
const (
	// StepEntry runs once and sets up the initial channel pattern.
	StepEntry Step = iota
	Step1
	Step2
	Step3
	Step4
	Step5
	Step6
)

// StepCount is the number of steps in a commutation cycle.
const StepCount = 6

// Next returns the step following s. Step6 wraps to Step1.
func (s Step) Next() Step {
	if s >= Step6 || s < StepEntry {
		return Step1
	}
	return s + 1
}

// IsValid checks if s is a known step.
func (s Step) IsValid() bool {
	return s >= StepEntry && s <= Step6
}

// String implements fmt.Stringer.
func (s Step) String() string {
	switch {
	case s == StepEntry:
		return "ENTRY"
	case s.IsValid():
		return fmt.Sprintf("S%d", int(s))
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Channel is an output-compare channel, 1 to 3.
type Channel int

// Channels
const (
	CH1 Channel = 1
	CH2 Channel = 2
	CH3 Channel = 3
)

// ChannelCount is the number of output-compare channels.
const ChannelCount = 3

// IsValid checks if c is one of CH1, CH2, CH3.
func (c Channel) IsValid() bool {
	return c >= CH1 && c <= CH3
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	return fmt.Sprintf("CH%d", int(c))
}

// Output selects the main or complementary output of a channel.
type Output int

// Outputs
const (
	OutputMain Output = iota
	OutputComplementary
)

// String implements fmt.Stringer.
func (o Output) String() string {
	if o == OutputComplementary {
		return "N"
	}
	return ""
}

// Mode is the output-compare mode of a channel.
type Mode int

// Modes
const (
	ModeTiming Mode = iota
	ModePWM
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeTiming:
		return "timing"
	case ModePWM:
		return "pwm"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Op is the kind of a driver command.
type Op int

// Ops
const (
	OpSetMode Op = iota
	OpEnable
	OpDisable
)

// Command is a single operation sent to the timer output driver.
type Command struct {
	Op      Op
	Channel Channel
	Output  Output
	Mode    Mode
}

// SetMode creates a command to set the output-compare mode.
func SetMode(ch Channel, mode Mode) Command {
	return Command{Op: OpSetMode, Channel: ch, Mode: mode}
}

// Enable creates a command enabling an output.
func Enable(ch Channel, out Output) Command {
	return Command{Op: OpEnable, Channel: ch, Output: out}
}

// Disable creates a command disabling an output.
func Disable(ch Channel, out Output) Command {
	return Command{Op: OpDisable, Channel: ch, Output: out}
}

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c.Op {
	case OpSetMode:
		return fmt.Sprintf("mode %s=%s", c.Channel, c.Mode)
	case OpEnable:
		return fmt.Sprintf("enable %s%s", c.Channel, c.Output)
	case OpDisable:
		return fmt.Sprintf("disable %s%s", c.Channel, c.Output)
	default:
		return fmt.Sprintf("op(%d) %s%s", int(c.Op), c.Channel, c.Output)
	}
}

// Driver is the timer output driver receiving channel commands.
// Implementations are expected to stage the commands in shadow
// registers which are applied together on the hardware commutation event.
type Driver interface {
	SetChannelMode(ch Channel, mode Mode) error
	EnableChannel(ch Channel, out Output) error
	DisableChannel(ch Channel, out Output) error
}

// Execute sends a command to the driver.
func Execute(d Driver, cmd Command) error {
	switch cmd.Op {
	case OpSetMode:
		return d.SetChannelMode(cmd.Channel, cmd.Mode)
	case OpEnable:
		return d.EnableChannel(cmd.Channel, cmd.Output)
	case OpDisable:
		return d.DisableChannel(cmd.Channel, cmd.Output)
	}
	return fmt.Errorf("unknown op %d", int(cmd.Op))
}

// ChannelState is the observable state of one channel.
type ChannelState struct {
	Main          bool
	Complementary bool
	Mode          Mode
}

// Activation is the state of all three channels.
type Activation [ChannelCount]ChannelState

// Channel returns the state of a channel, zero for an invalid channel.
func (a Activation) Channel(ch Channel) ChannelState {
	if !ch.IsValid() {
		return ChannelState{}
	}
	return a[ch-1]
}

// Enabled checks if an output is enabled. An invalid channel has nothing
// enabled.
func (a Activation) Enabled(ch Channel, out Output) bool {
	st := a.Channel(ch)
	if out == OutputComplementary {
		return st.Complementary
	}
	return st.Main
}

// Apply applies the effect of cmd.
func (a *Activation) Apply(cmd Command) {
	if !cmd.Channel.IsValid() {
		return
	}
	st := &a[cmd.Channel-1]
	switch cmd.Op {
	case OpSetMode:
		st.Mode = cmd.Mode
	case OpEnable, OpDisable:
		on := cmd.Op == OpEnable
		if cmd.Output == OutputComplementary {
			st.Complementary = on
		} else {
			st.Main = on
		}
	}
}

// String renders enabled outputs, e.g. "CH1 CH3N".
func (a Activation) String() string {
	var outs []string
	for n, st := range a {
		ch := Channel(n + 1)
		if st.Main {
			outs = append(outs, ch.String())
		}
		if st.Complementary {
			outs = append(outs, ch.String()+"N")
		}
	}
	if len(outs) == 0 {
		return "-"
	}
	return strings.Join(outs, " ")
}
