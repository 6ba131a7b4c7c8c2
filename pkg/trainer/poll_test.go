package trainer

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances a fixed step on every After call so the poll loop runs
// without sleeping.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(c.step)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// scriptedBackend returns canned statuses in order, repeating the last one.
type scriptedBackend struct {
	statuses []Status
	pollErr  error
	polls    int
}

func (b *scriptedBackend) Submit(ctx context.Context, spec JobSpec) (Submission, error) {
	return Submission{JobID: "job-1", ResourceHandle: "handle-1"}, nil
}

func (b *scriptedBackend) PollStatus(ctx context.Context, handle string) (Status, error) {
	if b.pollErr != nil {
		return Status{}, b.pollErr
	}
	i := b.polls
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	b.polls++
	return b.statuses[i], nil
}

func (b *scriptedBackend) Cancel(ctx context.Context, handle string) (bool, error) {
	return true, nil
}

func (b *scriptedBackend) Deploy(ctx context.Context, modelURI string) (Deployment, error) {
	return Deployment{EndpointID: "ep-1"}, nil
}

func TestPollUntilDoneSuccess(t *testing.T) {
	backend := &scriptedBackend{statuses: []Status{
		{State: StateQueued},
		{State: StateRunning},
		{State: StateSucceeded, ModelURI: "models/m-1"},
	}}
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Minute}

	res, err := PollUntilDone(context.Background(), backend, "handle-1", time.Minute, time.Hour, clock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut {
		t.Fatal("result must not be marked timed out")
	}
	if res.Status.State != StateSucceeded || res.Status.ModelURI != "models/m-1" {
		t.Fatalf("unexpected final status: %+v", res.Status)
	}
	if backend.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", backend.polls)
	}
}

func TestPollUntilDoneTimeout(t *testing.T) {
	backend := &scriptedBackend{statuses: []Status{{State: StateRunning}}}
	clock := &fakeClock{now: time.Unix(0, 0), step: 10 * time.Minute}

	res, err := PollUntilDone(context.Background(), backend, "handle-1", 10*time.Minute, 25*time.Minute, clock)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if res.Status.State != StateRunning {
		t.Fatalf("expected the last snapshot, got %+v", res.Status)
	}
}

func TestPollUntilDonePropagatesPollError(t *testing.T) {
	wantErr := errors.New("backend unreachable")
	backend := &scriptedBackend{pollErr: wantErr}
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Minute}

	_, err := PollUntilDone(context.Background(), backend, "handle-1", time.Minute, time.Hour, clock)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the poll error back, got %v", err)
	}
}

// stuckClock never ticks, so only context cancellation can unblock the loop.
type stuckClock struct{ now time.Time }

func (c stuckClock) Now() time.Time                       { return c.now }
func (c stuckClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func TestPollUntilDoneContextCancel(t *testing.T) {
	backend := &scriptedBackend{statuses: []Status{{State: StateRunning}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PollUntilDone(ctx, backend, "handle-1", time.Minute, time.Hour, stuckClock{now: time.Unix(0, 0)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDone(t *testing.T) {
	for _, state := range []string{StateSucceeded, StateFailed, StateCancelled, StateExpired} {
		if !Done(state) {
			t.Fatalf("%s must be final", state)
		}
	}
	for _, state := range []string{StateQueued, StateRunning} {
		if Done(state) {
			t.Fatalf("%s must not be final", state)
		}
	}
}
