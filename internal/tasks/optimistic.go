package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hitnote/internal/shared"
)

// Optimistic holds a value of type S that is changed through [Mutate].
//
// One mutation may be in flight at a time. Subscribers see the guess before the request is sent, then either the
// reconciled value or the restored prior value.
type Optimistic[S any] struct {
	mu      sync.Mutex
	state   S
	busy    bool
	logger  *log.Logger
	subs    broadcaster[S]
	notices broadcaster[Notice]
}

func NewOptimistic[S any](initial S, logger *log.Logger) *Optimistic[S] {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Optimistic[S]{state: initial, logger: logger}
}

// State returns the current value.
func (o *Optimistic[S]) State() S {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a mutation is in flight.
func (o *Optimistic[S]) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Set replaces the value with an authoritative one, such as a fresh fetch.
func (o *Optimistic[S]) Set(s S) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setLocked(s)
}

// Update applies fn to the value under the lock.
func (o *Optimistic[S]) Update(fn func(S) S) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setLocked(fn(o.state))
}

func (o *Optimistic[S]) setLocked(s S) {
	o.state = s
	o.subs.send(s)
}

// Subscribe returns a channel of value changes and a function that cancels the subscription.
func (o *Optimistic[S]) Subscribe() (<-chan S, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := o.subs.subscribe()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.subs.unsubscribe(ch)
		})
	}
}

// Notices returns a channel of rollback notices and a function that cancels the subscription.
func (o *Optimistic[S]) Notices() (<-chan Notice, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := o.notices.subscribe()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.notices.unsubscribe(ch)
		})
	}
}

// Mutation describes one optimistic change.
type Mutation[S, R any] struct {
	Op Op

	// Guess returns the value shown while Commit runs. Nil leaves the value unchanged.
	Guess func(prior S) S

	// Commit performs the request.
	Commit func(ctx context.Context) (R, error)

	// Reconcile returns the final value from the prior value and the backend's result.
	Reconcile func(prior S, result R) S
}

// Mutate runs m in three phases: apply the guess, commit, then reconcile on success or restore the prior value on
// failure. It returns [shared.ErrBusy] without side effects when another mutation is in flight.
func Mutate[S, R any](ctx context.Context, o *Optimistic[S], m Mutation[S, R]) (S, error) {
	o.mu.Lock()
	if o.busy {
		s := o.state
		o.mu.Unlock()
		return s, shared.ErrBusy
	}
	o.busy = true
	prior := o.state
	if m.Guess != nil {
		o.setLocked(m.Guess(prior))
	}
	o.mu.Unlock()

	result, err := m.Commit(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false

	if err != nil {
		o.logger.Warn("rolling back", "op", m.Op, "err", err)
		o.setLocked(prior)
		o.notices.send(failureNotice(m.Op, err))
		return prior, err
	}

	next := m.Reconcile(prior, result)
	o.setLocked(next)
	return next, nil
}
