package runner

import (
	"sync"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/cenkalti/backoff/v4"
)

// BackoffPolicy enables exponential per-source backoff after fetch failures.
// A disabled policy polls every source on every cycle.
type BackoffPolicy struct {
	Enabled bool
	Initial time.Duration
	Max     time.Duration
}

type sourceState struct {
	policy   *backoff.ExponentialBackOff
	until    time.Time
	failures int
}

type backoffTracker struct {
	policy BackoffPolicy
	now    func() time.Time

	mu     sync.Mutex
	states map[core.Platform]*sourceState
}

func newBackoffTracker(policy BackoffPolicy, now func() time.Time) *backoffTracker {
	if policy.Initial <= 0 {
		policy.Initial = time.Minute
	}
	if policy.Max < policy.Initial {
		policy.Max = policy.Initial
	}
	return &backoffTracker{
		policy: policy,
		now:    now,
		states: make(map[core.Platform]*sourceState),
	}
}

// ready reports whether platform may be polled now, and if not, until when
// it is held back.
func (t *backoffTracker) ready(platform core.Platform) (bool, time.Time) {
	if !t.policy.Enabled {
		return true, time.Time{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[platform]
	if !ok || !t.now().Before(state.until) {
		return true, time.Time{}
	}
	return false, state.until
}

// failure records a failed fetch and returns the delay before the next
// attempt, or zero when backoff is disabled.
func (t *backoffTracker) failure(platform core.Platform) time.Duration {
	if !t.policy.Enabled {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[platform]
	if !ok {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = t.policy.Initial
		eb.MaxInterval = t.policy.Max
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		eb.Reset()
		state = &sourceState{policy: eb}
		t.states[platform] = state
	}
	state.failures++
	next := state.policy.NextBackOff()
	state.until = t.now().Add(next)
	return next
}

func (t *backoffTracker) success(platform core.Platform) {
	if !t.policy.Enabled {
		return
	}
	t.mu.Lock()
	delete(t.states, platform)
	t.mu.Unlock()
}
