package driver

import (
	"context"
	"sync"
)

// stopSignal is a single-shot, single-consumer stop trigger: cancel is the
// stop trigger, done is closed by the Processor when its loop exits (on its
// own, or because cancel fired) and stands in for "receiver observed/gone".
type stopSignal struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newStopSignal() (context.Context, *stopSignal) {
	ctx, cancel := context.WithCancel(context.Background())
	return ctx, &stopSignal{cancel: cancel, done: make(chan struct{})}
}

// finished reports whether the Processor side has already finished, i.e.
// whether a Send would find nobody listening.
func (s *stopSignal) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Registry is the process-wide mapping from FIFO path to stop-signal sender.
// All mutation happens under mu; no I/O is ever performed while holding it.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*stopSignal
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*stopSignal)}
}

// Register inserts sig at path. It returns nothing: a sender previously
// registered at path is not handed back to the caller but dropped by
// cancelling it immediately: this
// is how the registry behaves when the engine resends StartLogging for a
// path whose earlier Processor never received a StopLogging.
func (r *Registry) Register(path string, sig *stopSignal) {
	r.mu.Lock()
	prev, had := r.tasks[path]
	r.tasks[path] = sig
	r.mu.Unlock()

	if had {
		prev.cancel()
	}
}

// Take removes and returns the sender registered at path, or reports ok=false
// if none is registered.
func (r *Registry) Take(path string) (sig *stopSignal, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig, ok = r.tasks[path]
	if ok {
		delete(r.tasks, path)
	}
	return sig, ok
}

// Len reports the number of registered paths. Exposed for tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
