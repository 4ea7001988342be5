package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval when none is set.
const DefaultInterval = 100 * time.Millisecond

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// Loop runs controllers by priority on every iteration and the attached
// Runnables in the background. An iteration runs when Interval elapses or
// TriggerNext is called.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	lock       sync.Mutex
	pending    []Message
	iterations uint64
	wakeUpCh   chan struct{}
}

type ctxKey struct{}

// LoopCtlFrom gets LoopControl from the context passed to Runnables and
// controllers of a loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(ctxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// WithInterval sets the interval.
func (l *Loop) WithInterval(interval time.Duration) *Loop {
	l.Interval = interval
	return l
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. A controller
// which is also a Runnable is started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(context.WithValue(ctx, ctxKey{}, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		l.runIteration(ctx)
	}
}

// RunOrFail is intended to be used in main to run the loop until
// interrupted.
func (l *Loop) RunOrFail() {
	runner := NewRunner().HandleSignals()
	runner.Go(l)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

// Iterations returns the number of iterations executed.
func (l *Loop) Iterations() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.iterations
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	iter := &iteration{Loop: l, time: time.Now()}
	l.lock.Lock()
	iter.messages, l.pending = l.pending, nil
	l.iterations++
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, ctxKey{}, LoopControl(iter))
	for lv, ctls := range l.controllers {
		iter.level = lv
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				name := "controller"
				if named, ok := ctl.(Named); ok {
					name = named.Name()
				}
				glog.Errorf("%s error (priority %d): %v", name, lv, err)
			}
		}
	}
}

// iteration implements ControlContext and MessageStore.
type iteration struct {
	*Loop
	ctx      context.Context
	time     time.Time
	level    int
	messages []Message
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) PriorityLevel() int       { return t.level }
func (t *iteration) Messages() MessageStore   { return t }

func (t *iteration) AddMessages(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

func (t *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := t.messages
	t.messages = nil
	var kept []Message
	for n, msg := range msgs {
		mctx := &messageContext{iter: t, msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			kept = append(kept, msg)
		}
		if mctx.stop {
			kept = append(kept, msgs[n+1:]...)
			break
		}
	}
	// messages added while processing come after the kept ones.
	t.messages = append(kept, t.messages...)
}

type messageContext struct {
	iter  *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }
