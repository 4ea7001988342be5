package framework

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopProcessMessages(t *testing.T) {
	loop := NewLoop().WithInterval(time.Hour)
	gotCh := make(chan []int, 1)
	loop.AddController(PrLvCommand, ControlFunc(func(cc ControlContext) error {
		var vals []int
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m, ok := mctx.CurrentMessage().(*testMsg); ok && m.val%2 == 0 {
				mctx.MessageTaken()
				vals = append(vals, m.val)
			}
		}))
		if len(vals) > 0 {
			gotCh <- vals
		}
		return nil
	}))
	leftCh := make(chan int, 4)
	loop.AddController(PrLvReport, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			leftCh <- mctx.CurrentMessage().(*testMsg).val
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop.AddRunnable(RunnableFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		for n := 1; n <= 4; n++ {
			ctl.PostMessage(&testMsg{val: n})
		}
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	select {
	case vals := <-gotCh:
		require.Equal(t, []int{2, 4}, vals)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	require.Equal(t, 1, <-leftCh)
	require.Equal(t, 3, <-leftCh)
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, loop.Iterations() >= 1)
}

func TestStopProcessing(t *testing.T) {
	iter := &iteration{}
	iter.AddMessages(&testMsg{val: 1}, &testMsg{val: 2}, &testMsg{val: 3})
	var seen []int
	iter.ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		m := mctx.CurrentMessage().(*testMsg)
		seen = append(seen, m.val)
		mctx.MessageTaken()
		if m.val == 2 {
			mctx.AddMessages(&testMsg{val: 4})
			mctx.StopProcessing()
		}
	}))
	require.Equal(t, []int{1, 2}, seen)

	seen = nil
	iter.ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		seen = append(seen, mctx.CurrentMessage().(*testMsg).val)
	}))
	require.Equal(t, []int{3, 4}, seen)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "2 errors: a; b")
	require.False(t, errors.Is(errs.Aggregate(), context.Canceled))
	errs.Add(fmt.Errorf("run: %w", context.Canceled))
	require.True(t, errors.Is(errs.Aggregate(), context.Canceled))
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx)
	failure := errors.New("failed")
	runner.Go(
		NamedRun("fails", RunnableFunc(func(context.Context) error { return failure })),
		RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	cancel()
	require.EqualError(t, runner.Wait(), "failed")
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopCh := make(chan struct{})
	go cancel()
	err := RunWithContextCancel(ctx, func() { close(stopCh) }, func() error {
		<-stopCh
		return nil
	})
	require.Equal(t, context.Canceled, err)
}
