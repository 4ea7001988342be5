package commutation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingDriver struct {
	state    Activation
	commands []Command
	rejectAt int
}

func (d *recordingDriver) exec(cmd Command) error {
	if d.rejectAt > 0 && len(d.commands)+1 == d.rejectAt {
		return errors.New("rejected")
	}
	d.commands = append(d.commands, cmd)
	d.state.Apply(cmd)
	return nil
}

func (d *recordingDriver) SetChannelMode(ch Channel, mode Mode) error {
	return d.exec(SetMode(ch, mode))
}

func (d *recordingDriver) EnableChannel(ch Channel, out Output) error {
	return d.exec(Enable(ch, out))
}

func (d *recordingDriver) DisableChannel(ch Channel, out Output) error {
	return d.exec(Disable(ch, out))
}

func TestStepNext(t *testing.T) {
	require.Equal(t, Step1, StepEntry.Next())
	for s := Step1; s < Step6; s++ {
		require.Equal(t, s+1, s.Next())
	}
	require.Equal(t, Step1, Step6.Next())
	require.Equal(t, "ENTRY", StepEntry.String())
	require.Equal(t, "S4", Step4.String())
	require.False(t, Step(7).IsValid())
}

func TestFirstEvents(t *testing.T) {
	d := &recordingDriver{}
	s := NewSequencer(d)
	require.Equal(t, StepEntry, s.Step())

	require.NoError(t, s.OnCommutationEvent())
	require.Equal(t, Step1, s.Step())
	require.Equal(t, Activation{
		{Main: true, Mode: ModePWM},
		{},
		{Complementary: true, Mode: ModePWM},
	}, d.state)

	require.NoError(t, s.OnCommutationEvent())
	require.Equal(t, Step2, s.Step())
	require.Equal(t, Activation{
		{Main: true, Mode: ModePWM},
		{Complementary: true, Mode: ModePWM},
		{Mode: ModePWM},
	}, d.state)
	require.Equal(t, "CH1 CH2N", d.state.String())
}

func TestStepAfterEvents(t *testing.T) {
	d := &recordingDriver{}
	s := NewSequencer(d)
	for n := 1; n <= 40; n++ {
		require.NoError(t, s.OnCommutationEvent())
		require.Equal(t, Step(1+(n-1)%StepCount), s.Step(), "after %d events", n)
		require.Equal(t, uint64(n), s.Events())
	}
}

func enabledOutputs(a Activation) (outs [ChannelCount][2]bool) {
	for n, st := range a {
		outs[n] = [2]bool{st.Main, st.Complementary}
	}
	return
}

func TestCycleReturnsToEntryPattern(t *testing.T) {
	d := &recordingDriver{}
	s := NewSequencer(d)
	require.NoError(t, s.OnCommutationEvent())
	first := d.state
	for n := 0; n < StepCount; n++ {
		require.NoError(t, s.OnCommutationEvent())
	}
	// ENTRY leaves CH2 in timing mode and S1 switches it to PWM for good,
	// so after 7 events only the enabled outputs match event 1.
	require.Equal(t, enabledOutputs(first), enabledOutputs(d.state))
	require.Equal(t, first.String(), d.state.String())
	require.Equal(t, ModeTiming, first.Channel(CH2).Mode)
	require.Equal(t, ModePWM, d.state.Channel(CH2).Mode)
	require.Equal(t, Step1, s.Step())

	// from event 7 on the full state, modes included, repeats every cycle.
	cycleStart := d.state
	for cycle := 0; cycle < 6; cycle++ {
		for n := 0; n < StepCount; n++ {
			require.NoError(t, s.OnCommutationEvent())
		}
		require.Equal(t, cycleStart, d.state, "cycle %d", cycle)
		require.Equal(t, Step1, s.Step())
	}
}

func TestActivationInvalidChannel(t *testing.T) {
	a := Pattern(Step1)
	require.True(t, a.Enabled(CH1, OutputMain))
	for _, ch := range []Channel{Channel(0), Channel(4), Channel(-1)} {
		require.Equal(t, ChannelState{}, a.Channel(ch), "channel %d", ch)
		require.False(t, a.Enabled(ch, OutputMain), "channel %d", ch)
		require.False(t, a.Enabled(ch, OutputComplementary), "channel %d", ch)
	}
}

func TestActivationValueReceivers(t *testing.T) {
	pattern := func() Activation { return Pattern(Step2) }
	require.True(t, pattern().Enabled(CH3, OutputMain))
	require.Equal(t, ModePWM, pattern().Channel(CH3).Mode)
}

func TestEntryRunsOnce(t *testing.T) {
	d := &recordingDriver{}
	s := NewSequencer(d)
	entry := RowOf(StepEntry).Commands
	for n := 0; n < 13; n++ {
		require.NoError(t, s.OnCommutationEvent())
	}
	require.Equal(t, entry, d.commands[:len(entry)])
	var disables int
	for _, cmd := range d.commands {
		if cmd == Disable(CH2, OutputMain) {
			disables++
		}
	}
	// once in ENTRY, once per S6 (events 7 and 13).
	require.Equal(t, 3, disables)
}

func TestPattern(t *testing.T) {
	testCases := []struct {
		step   Step
		expect string
	}{
		{StepEntry, "CH1 CH3N"},
		{Step1, "CH1 CH2N"},
		{Step2, "CH2N CH3"},
		{Step3, "CH1N CH3"},
		{Step4, "CH1N CH2"},
		{Step5, "CH2 CH3N"},
		{Step6, "CH1 CH3N"},
	}
	for _, tc := range testCases {
		t.Run(tc.step.String(), func(t *testing.T) {
			a := Pattern(tc.step)
			require.Equal(t, tc.expect, a.String())
		})
	}
}

func TestMinimalDeltas(t *testing.T) {
	// every active step switches exactly one output on and one off.
	for _, row := range Table()[1:] {
		var on, off int
		for _, cmd := range row.Commands {
			switch cmd.Op {
			case OpEnable:
				on++
			case OpDisable:
				off++
			}
		}
		require.Equal(t, 1, on, "row %s", row.Step)
		require.Equal(t, 1, off, "row %s", row.Step)
	}
}

func TestDriverFailure(t *testing.T) {
	d := &recordingDriver{rejectAt: 10}
	var faults []error
	s := NewSequencer(d, WithFaultHandler(FaultFunc(func(err error) {
		faults = append(faults, err)
	})))
	require.NoError(t, s.OnCommutationEvent())
	err := s.OnCommutationEvent()
	require.Error(t, err)
	var failure *DriverCommandFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, Step1, failure.Step)
	require.Equal(t, Enable(CH2, OutputComplementary), failure.Command)
	require.True(t, s.Halted())
	require.Len(t, faults, 1)

	issued := len(d.commands)
	for n := 0; n < 5; n++ {
		require.Equal(t, ErrHalted, s.OnCommutationEvent())
	}
	require.Len(t, d.commands, issued)
	require.Len(t, faults, 1)
	require.Equal(t, Step1, s.Step())
}

func TestStep4CommandOrder(t *testing.T) {
	d := &recordingDriver{}
	s := NewSequencer(d)
	for n := 0; n < 4; n++ {
		require.NoError(t, s.OnCommutationEvent())
	}
	require.Equal(t, Step4, s.Step())
	d.commands = nil
	require.NoError(t, s.OnCommutationEvent())
	require.Equal(t, []Command{
		Disable(CH3, OutputMain),
		SetMode(CH2, ModePWM),
		Enable(CH2, OutputMain),
	}, d.commands)
}
