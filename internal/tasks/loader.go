package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hitnote/internal/shared"
)

// Status is the phase of a fetch.
type Status int

const (
	Pending Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return ""
	}
}

// View is what a fetch-backed view renders. Exactly one applies to any [State].
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewEmpty
	ViewReady
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	case ViewReady:
		return "ready"
	default:
		return ""
	}
}

// State is a loader's output slot.
//
// Data is only meaningful on Success, Message and Err only on Failure.
type State[T any] struct {
	Status     Status
	Data       T
	Message    string
	Err        error
	Empty      bool
	Generation uint64
}

// View maps the state onto the loading, error, empty and ready views.
func (s State[T]) View() View {
	switch s.Status {
	case Failure:
		return ViewError
	case Success:
		if s.Empty {
			return ViewEmpty
		}
		return ViewReady
	default:
		return ViewLoading
	}
}

// FetchFunc fetches the entity for key. token is "" for anonymous requests.
type FetchFunc[K comparable, T any] func(ctx context.Context, token string, key K) (T, error)

// Loader keeps one entity in sync with an identity key.
//
// Every fetch is tagged with a generation number. Only the result of the latest generation is applied; earlier
// results are discarded when they arrive. The superseded request's context is cancelled too, but correctness
// depends only on the generation check.
type Loader[K comparable, T any] struct {
	mu      sync.Mutex
	name    string
	fetch   FetchFunc[K, T]
	isEmpty func(T) bool
	deps    Deps
	logger  *log.Logger

	key    K
	hasKey bool
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	state  State[T]
	subs   broadcaster[State[T]]
	closed bool
}

// NewLoader creates a loader. isEmpty decides when a successful result renders as the empty view; nil means never.
func NewLoader[K comparable, T any](name string, fetch FetchFunc[K, T], isEmpty func(T) bool, deps Deps) *Loader[K, T] {
	if isEmpty == nil {
		isEmpty = func(T) bool { return false }
	}
	return &Loader[K, T]{
		name:    name,
		fetch:   fetch,
		isEmpty: isEmpty,
		deps:    deps,
		logger:  deps.logger(name),
		state:   State[T]{Status: Pending},
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// NeedsLoad reports whether [Loader.Load] with key would start a fetch.
func (l *Loader[K, T]) NeedsLoad(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.needsLoadLocked(key)
}

func (l *Loader[K, T]) needsLoadLocked(key K) bool {
	return !l.hasKey || l.key != key || l.state.Status == Failure
}

// Load fetches key unless it is already the current key and its last fetch did not fail.
//
// The returned channel is closed when the fetch serving key settles, whether its result was applied or discarded.
func (l *Loader[K, T]) Load(ctx context.Context, key K) <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return closedChan()
	}
	if !l.needsLoadLocked(key) {
		if l.done != nil {
			return l.done
		}
		return closedChan()
	}
	return l.startLocked(ctx, key)
}

// Reload fetches the current key again. Without a key it does nothing.
func (l *Loader[K, T]) Reload(ctx context.Context) <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || !l.hasKey {
		return closedChan()
	}
	return l.startLocked(ctx, l.key)
}

func (l *Loader[K, T]) startLocked(ctx context.Context, key K) <-chan struct{} {
	if l.cancel != nil {
		l.cancel()
	}

	l.gen++
	gen := l.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.key, l.hasKey = key, true
	l.cancel = cancel
	l.done = done
	l.setLocked(State[T]{Status: Pending, Generation: gen})

	token := l.deps.token()
	l.logger.Debug("fetch started", "key", key, "generation", gen)

	go func() {
		defer close(done)
		defer cancel()

		data, err := l.fetch(fetchCtx, token, key)
		l.settle(gen, key, data, err)
	}()
	return done
}

func (l *Loader[K, T]) settle(gen uint64, key K, data T, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		l.logger.Debug("discarding stale result", "key", key, "generation", gen, "latest", l.gen)
		return
	}
	l.cancel = nil

	if err != nil {
		l.logger.Debug("fetch failed", "key", key, "err", err)
		l.setLocked(State[T]{Status: Failure, Message: shared.UserMessage(err), Err: err, Generation: gen})
		return
	}
	l.setLocked(State[T]{Status: Success, Data: data, Empty: l.isEmpty(data), Generation: gen})
}

func (l *Loader[K, T]) setLocked(s State[T]) {
	l.state = s
	l.subs.send(s)
}

// State returns the current state.
func (l *Loader[K, T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Current returns the current key and state together.
func (l *Loader[K, T]) Current() (K, bool, State[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key, l.hasKey, l.state
}

// Subscribe returns a channel of state changes and a function that cancels the subscription.
func (l *Loader[K, T]) Subscribe() (<-chan State[T], func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := l.subs.subscribe()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.subs.unsubscribe(ch)
		})
	}
}

// Wait blocks until the latest fetch settles or ctx ends, then returns the state.
func (l *Loader[K, T]) Wait(ctx context.Context) (State[T], error) {
	for {
		l.mu.Lock()
		done, st, closed := l.done, l.state, l.closed
		l.mu.Unlock()

		if st.Status != Pending || done == nil || closed {
			return st, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}
	}
}

// Close discards any in-flight fetch. Later loads do nothing.
func (l *Loader[K, T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Name returns the loader's log name.
func (l *Loader[K, T]) Name() string { return l.name }
