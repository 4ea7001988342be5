package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/drive"
	"github.com/robotalks/sixstep/pkg/timer"
)

func decodeLines(t *testing.T, out string) [][]Message {
	var batches [][]Message
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var msgs []Message
		require.NoError(t, json.Unmarshal([]byte(line), &msgs))
		batches = append(batches, msgs)
	}
	return batches
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "100001", LevelString([3]timer.PinLevels{{Main: true}, {}, {Complementary: true}}))
	require.Equal(t, "000000", LevelString([3]timer.PinLevels{}))
}

func TestRecorder(t *testing.T) {
	sim := timer.NewSim(*timer.NewConfig())
	conf := NewConfig()
	conf.Samples = 4
	var out bytes.Buffer
	rec := conf.NewRecorder().WithSource(sim)
	rec.Writer = &out

	ctl := drive.NewController(sim, nil)
	ctl.Observer = rec
	require.NoError(t, ctl.Advance(2))
	require.NoError(t, rec.Flush())
	require.NoError(t, rec.Flush())

	batches := decodeLines(t, out.String())
	require.Len(t, batches, 1)
	msgs := batches[0]
	require.Len(t, msgs, 3)
	require.Equal(t, ActionReset, msgs[0].Action)
	require.Equal(t, uint32(4095), msgs[0].Period)
	require.Equal(t, []uint32{2047, 1023, 511}, msgs[0].Pulse)

	require.Equal(t, ActionCom, msgs[1].Action)
	require.Equal(t, uint64(1), msgs[1].Event)
	require.Equal(t, "S1", msgs[1].Next)
	require.Equal(t, "CH1 CH3N", msgs[1].Active)
	require.Equal(t, []Channel{{Main: true, PWM: true}, {}, {Comp: true, PWM: true}}, msgs[1].Channels)
	require.Equal(t, []string{"100000", "100001", "000001", "000001"}, msgs[1].Levels)

	require.Equal(t, commutation.Pattern(commutation.Step1).String(), msgs[2].Active)
}

func TestRecorderDropsAndFault(t *testing.T) {
	conf := NewConfig()
	conf.MaxPending = 1
	var out bytes.Buffer
	rec := conf.NewRecorder()
	rec.Writer = &out

	ctl := drive.NewController(timer.NewSim(*timer.NewConfig()), nil)
	ctl.Observer = rec
	require.NoError(t, ctl.Advance(3))
	rec.Fault(errors.New("boom"))
	rec.Fault(errors.New("again"))
	require.NoError(t, rec.Flush())

	msgs := decodeLines(t, out.String())[0]
	require.Len(t, msgs, 4)
	require.Equal(t, ActionReset, msgs[0].Action)
	require.Equal(t, uint64(1), msgs[1].Event)
	require.Equal(t, Message{Action: ActionDrop, Dropped: 2}, msgs[2])
	require.Equal(t, Message{Action: ActionFault, Error: "boom"}, msgs[3])
}
