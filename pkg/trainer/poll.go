package trainer

import (
	"context"
	"time"
)

// Clock abstracts time for the poll loop so tests can drive it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// PollResult is the final snapshot the poll loop hands back.
type PollResult struct {
	Status   Status
	TimedOut bool
}

// PollUntilDone polls the backend at a fixed interval until the job reaches
// a final state, ctx is cancelled, or the wall-clock timeout elapses. On
// timeout it fetches one last snapshot, marks the result TimedOut, and
// returns without error; the caller routes that into its failure handling.
// A poll transport error is returned as-is; the loop never retries past it
// on its own beyond continuing to the next tick.
func PollUntilDone(ctx context.Context, backend Backend, resourceHandle string, interval, timeout time.Duration, clock Clock) (PollResult, error) {
	if clock == nil {
		clock = RealClock
	}
	deadline := clock.Now().Add(timeout)

	for {
		status, err := backend.PollStatus(ctx, resourceHandle)
		if err != nil {
			return PollResult{}, err
		}
		if Done(status.State) {
			return PollResult{Status: status}, nil
		}

		if !clock.Now().Before(deadline) {
			final, err := backend.PollStatus(ctx, resourceHandle)
			if err != nil {
				final = status
			}
			return PollResult{Status: final, TimedOut: true}, nil
		}

		select {
		case <-ctx.Done():
			return PollResult{Status: status}, ctx.Err()
		case <-clock.After(interval):
		}
	}
}
