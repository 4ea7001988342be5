package bridge

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/timer"
)

type chanStream struct {
	readCh  <-chan byte
	writeCh chan<- byte
}

func (s *chanStream) Read(p []byte) (int, error) {
	b, ok := <-s.readCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (s *chanStream) Write(p []byte) (int, error) {
	for _, b := range p {
		s.writeCh <- b
	}
	return len(p), nil
}

func newStreamPair() (*chanStream, *chanStream) {
	ab, ba := make(chan byte, 1024), make(chan byte, 1024)
	return &chanStream{readCh: ba, writeCh: ab}, &chanStream{readCh: ab, writeCh: ba}
}

type bridgeTestEnv struct {
	t      *testing.T
	sim    *timer.Sim
	driver *Driver
	board  *Responder
	faults chan error
	cancel context.CancelFunc
}

func newBridgeTestEnv(t *testing.T) *bridgeTestEnv {
	host, board := newStreamPair()
	env := &bridgeTestEnv{
		t:      t,
		sim:    timer.NewSim(*timer.NewConfig()),
		driver: NewDriver(NewLink(host)),
		faults: make(chan error, 1),
	}
	env.board = NewResponder(NewLink(board), env.sim)
	env.driver.FaultHandler = commutation.FaultFunc(func(err error) {
		env.faults <- err
	})
	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go env.driver.Run(ctx)
	go env.board.Run(ctx)
	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, env.driver.WaitReady(waitCtx))
	for !env.board.Ready() {
		select {
		case <-waitCtx.Done():
			t.Fatal("board not ready")
		case <-time.After(time.Millisecond):
		}
	}
	return env
}

func TestDriverRunsSequence(t *testing.T) {
	env := newBridgeTestEnv(t)
	defer env.cancel()

	local := timer.NewSim(*timer.NewConfig())
	remoteSeq := commutation.NewSequencer(env.driver)
	localSeq := commutation.NewSequencer(local)
	for n := 0; n <= commutation.StepCount*2; n++ {
		require.NoError(t, remoteSeq.OnCommutationEvent())
		require.NoError(t, env.driver.Commutate())
		require.NoError(t, localSeq.OnCommutationEvent())
		require.NoError(t, local.Commutate())
		require.Equal(t, local.Active(), env.sim.Active(), "event %d", n)
	}
	require.Equal(t, local.Trace(), env.sim.Trace())
	require.Equal(t, uint64(commutation.StepCount*2+1), env.sim.Commutations())
}

func TestDriverRejected(t *testing.T) {
	env := newBridgeTestEnv(t)
	defer env.cancel()
	env.sim.Reject = func(cmd commutation.Command) error {
		if cmd.Op == commutation.OpEnable && cmd.Channel == commutation.CH2 {
			return errors.New("locked")
		}
		return nil
	}

	seq := commutation.NewSequencer(env.driver)
	require.NoError(t, seq.OnCommutationEvent())
	err := seq.OnCommutationEvent()
	require.Error(t, err)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, ErrCodeRejected, cmdErr.Code)
	require.True(t, seq.Halted())
	require.Equal(t, commutation.ErrHalted, seq.OnCommutationEvent())
}

func TestDriverInvalidCommand(t *testing.T) {
	env := newBridgeTestEnv(t)
	defer env.cancel()
	err := env.driver.EnableChannel(commutation.Channel(5), commutation.OutputMain)
	require.Equal(t, &CommandError{Code: ErrCodeInvalid}, err)
	require.Empty(t, env.sim.Trace())
}

func TestDriverFaultEvent(t *testing.T) {
	env := newBridgeTestEnv(t)
	defer env.cancel()
	env.board.Fault(errors.New("break input"))
	select {
	case err := <-env.faults:
		require.Equal(t, &RemoteFault{Message: "break input"}, err)
	case <-time.After(time.Second):
		t.Fatal("fault not received")
	}
}

func TestDriverNotReady(t *testing.T) {
	host, _ := newStreamPair()
	drv := NewDriver(NewLink(host))
	require.Equal(t, ErrNotReady, drv.Commutate())
	require.False(t, drv.Ready())
}

func TestDriverTimeout(t *testing.T) {
	host, board := newStreamPair()
	drv := NewDriver(NewLink(host))
	drv.Timeout = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)
	board.Write([]byte{syncACK, 1})
	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, drv.WaitReady(waitCtx))
	require.Equal(t, ErrTimeout, drv.DisableChannel(commutation.CH1, commutation.OutputMain))
}
