// Package scheduler runs the pipeline's long-lived cycle loops.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop runs one cycle function forever on a fixed interval. The first
// cycle starts immediately. A cycle returning an error aborts only that
// cycle: the loop logs it and waits for the next tick. A panic escaping a
// cycle is a fault the pipeline cannot absorb; it is handed to OnFatal.
type Loop struct {
	Name     string
	Interval time.Duration
	// Jitter, when set, delays each tick by a random amount in [0, Jitter)
	// so two loops with the same interval do not stay phase-locked.
	Jitter time.Duration
	Cycle  func(ctx context.Context) error
	// OnFatal handles a panic escaping a cycle. It is expected not to
	// return (notify the operator, exit non-zero).
	OnFatal func(loopName string, v any)
	Log     *logrus.Logger
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.runCycle(ctx)

		wait := l.Interval
		if l.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(l.Jitter)))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (l *Loop) runCycle(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			if l.OnFatal != nil {
				l.OnFatal(l.Name, v)
			}
			panic(v)
		}
	}()

	l.Log.Infof("%s: starting cycle", l.Name)
	if err := l.Cycle(ctx); err != nil {
		l.Log.Errorf("%s: cycle aborted: %v", l.Name, err)
		return
	}
	l.Log.Infof("%s: cycle complete, next run in %s", l.Name, l.Interval)
}
