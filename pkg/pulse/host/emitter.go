package host

import (
	"sync"

	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Emitter is an in-process LifecycleSource. Hosts call its methods as their
// own lifecycle progresses; every registered Callbacks receives each signal
// in registration order.
//
// Emitter is safe for concurrent use. Registering or unregistering from
// within a callback takes effect for the next signal.
type Emitter struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []emitterEntry
}

type emitterEntry struct {
	id uint64
	cb Callbacks
}

var _ LifecycleSource = (*Emitter)(nil)

// NewEmitter creates an emitter with no registrations.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Register adds cb. The returned function is idempotent.
func (e *Emitter) Register(cb Callbacks) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.entries = append(e.entries, emitterEntry{id: id, cb: cb})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

// Len returns the number of registered callbacks.
func (e *Emitter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

func (e *Emitter) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, entry := range e.entries {
		if entry.id == id {
			e.entries = append(e.entries[:i:i], e.entries[i+1:]...)
			return
		}
	}
}

func (e *Emitter) each(fn func(Callbacks)) {
	e.mu.RLock()
	snapshot := make([]Callbacks, len(e.entries))
	for i, entry := range e.entries {
		snapshot[i] = entry.cb
	}
	e.mu.RUnlock()

	for _, cb := range snapshot {
		fn(cb)
	}
}

// ProcessCreated signals that the host process started.
func (e *Emitter) ProcessCreated() {
	e.each(func(cb Callbacks) { cb.ProcessCreated() })
}

// ScreenCreated signals that s was created.
func (e *Emitter) ScreenCreated(s Screen, savedState *payload.ValueMap) {
	e.each(func(cb Callbacks) { cb.ScreenCreated(s, savedState) })
}

// ScreenStarted signals that s became visible.
func (e *Emitter) ScreenStarted(s Screen) {
	e.each(func(cb Callbacks) { cb.ScreenStarted(s) })
}

// ScreenResumed signals that s gained focus.
func (e *Emitter) ScreenResumed(s Screen) {
	e.each(func(cb Callbacks) { cb.ScreenResumed(s) })
}

// ScreenPaused signals that s lost focus.
func (e *Emitter) ScreenPaused(s Screen) {
	e.each(func(cb Callbacks) { cb.ScreenPaused(s) })
}

// ScreenStopped signals that s is no longer visible.
func (e *Emitter) ScreenStopped(s Screen) {
	e.each(func(cb Callbacks) { cb.ScreenStopped(s) })
}

// ScreenSaveState signals that s is saving its state into outState.
func (e *Emitter) ScreenSaveState(s Screen, outState *payload.ValueMap) {
	e.each(func(cb Callbacks) { cb.ScreenSaveState(s, outState) })
}

// ScreenDestroyed signals that s was torn down.
func (e *Emitter) ScreenDestroyed(s Screen) {
	e.each(func(cb Callbacks) { cb.ScreenDestroyed(s) })
}
