// Package viewer tracks which 3D preview is loaded so that at most one is
// active per application instance.
package viewer

import (
	"sync"

	"github.com/google/uuid"
)

// Listener receives the active id, or "" when nothing is active.
type Listener func(active string)

// Activation owns the active viewer id and its subscribers. The zero value
// is ready to use.
type Activation struct {
	mu        sync.Mutex
	active    string
	nextID    int
	listeners map[int]Listener
	order     []int
}

// NewActivation returns an empty Activation.
func NewActivation() *Activation {
	return &Activation{}
}

// NewID returns a fresh viewer identifier.
func NewID() string {
	return uuid.NewString()
}

// Subscribe registers fn and immediately calls it with the current id.
// The returned func removes the subscription.
func (a *Activation) Subscribe(fn Listener) func() {
	a.mu.Lock()
	if a.listeners == nil {
		a.listeners = make(map[int]Listener)
	}
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.order = append(a.order, id)
	current := a.active
	a.mu.Unlock()

	fn(current)

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if _, ok := a.listeners[id]; !ok {
			return
		}
		delete(a.listeners, id)
		for i, v := range a.order {
			if v == id {
				a.order = append(a.order[:i], a.order[i+1:]...)
				break
			}
		}
	}
}

// SetActive makes id the active viewer and notifies every subscriber in
// subscription order. Passing "" clears the active viewer.
func (a *Activation) SetActive(id string) {
	a.mu.Lock()
	a.active = id
	listeners := make([]Listener, 0, len(a.order))
	for _, k := range a.order {
		listeners = append(listeners, a.listeners[k])
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// Clear deactivates whatever viewer is active.
func (a *Activation) Clear() {
	a.SetActive("")
}

// Toggle activates id, or clears it when it is already active. It returns
// whether id is active afterwards.
func (a *Activation) Toggle(id string) bool {
	if a.IsActive(id) {
		a.Clear()
		return false
	}
	a.SetActive(id)
	return true
}

// Active returns the active id and whether one is set.
func (a *Activation) Active() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active, a.active != ""
}

// IsActive reports whether id is the active viewer.
func (a *Activation) IsActive(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return id != "" && a.active == id
}
