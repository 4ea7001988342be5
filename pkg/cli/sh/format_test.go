package sh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/remote"
)

func TestFormatState(t *testing.T) {
	testCases := []struct {
		name   string
		snap   msgs.Snapshot
		expect string
	}{
		{
			name:   "initial",
			snap:   msgs.Snapshot{IntervalUs: 1000},
			expect: "next=ENTRY events=0 active=- paused interval=1ms",
		},
		{
			name: "running",
			snap: msgs.Snapshot{
				Step:       commutation.Step2,
				Events:     2,
				Active:     commutation.Pattern(commutation.Step1),
				Running:    true,
				IntervalUs: 500,
			},
			expect: "next=S2 events=2 active=CH1 CH2N running interval=500µs",
		},
		{
			name:   "halted",
			snap:   msgs.Snapshot{Step: commutation.Step1, Events: 1, Err: errors.New("rejected")},
			expect: "next=S1 events=1 active=- paused interval=0s HALTED: rejected",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := msgs.StateFrom(tc.snap)
			require.Equal(t, tc.expect, FormatState(&st))
		})
	}
}

func TestFormatMessage(t *testing.T) {
	out, err := FormatMessage(msgs.NewCommandOK(), false)
	require.NoError(t, err)
	require.Equal(t, "OK", out)

	out, err = FormatMessage(msgs.NewFaultEvent(errors.New("overcurrent")), false)
	require.NoError(t, err)
	require.Equal(t, "FAULT overcurrent", out)

	out, err = FormatMessage(msgs.NewAdvance(3), true)
	require.NoError(t, err)
	require.Equal(t, `{"count":3}`, out)
}

func TestWriteControllers(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteControllers(&out, []remote.ControllerInfo{
		{Ref: remote.ControllerRef{Type: "sixstep", ID: "bench1"}, Meta: remote.ControllerMeta{Description: "sim"}},
		{Ref: remote.ControllerRef{Type: "tcp", ID: "localhost:7070"}},
	}))
	require.Equal(t, ""+
		"TYPE     ID              DESCRIPTION\n"+
		"sixstep  bench1          sim\n"+
		"tcp      localhost:7070  \n", out.String())
}

func TestConnectRef(t *testing.T) {
	tests := []struct {
		args []string
		ref  remote.ControllerRef
		err  bool
	}{
		{nil, remote.ControllerRef{}, false},
		{[]string{"sixstep/bench1"}, remote.ControllerRef{Type: "sixstep", ID: "bench1"}, false},
		{[]string{"sixstep"}, remote.ControllerRef{Type: "sixstep"}, false},
		{[]string{"tcp", "localhost:7070"}, remote.ControllerRef{Type: "tcp", ID: "localhost:7070"}, false},
		{[]string{"a", "b", "c"}, remote.ControllerRef{}, true},
	}
	for _, test := range tests {
		ref, err := connectRef(test.args)
		if test.err {
			require.Error(t, err, "%v", test.args)
			continue
		}
		require.NoError(t, err, "%v", test.args)
		require.Equal(t, test.ref, ref, "%v", test.args)
	}
}
