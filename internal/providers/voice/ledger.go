package voice

import "sync"

// Ledger tracks live call handles so no connection outlives its session.
// The provider is known to leak connections across rapid start/stop cycles;
// every acquisition registers a release here and Sweep force-releases
// whatever a prior session left behind.
type Ledger struct {
	mu      sync.Mutex
	handles map[string]func()
}

func NewLedger() *Ledger {
	return &Ledger{handles: make(map[string]func())}
}

// Register records release as the teardown for the handle with the given id,
// replacing (and running) any release already registered under it.
func (l *Ledger) Register(id string, release func()) {
	l.mu.Lock()
	prev := l.handles[id]
	l.handles[id] = release
	l.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Release runs and forgets the handle's teardown. Safe to call twice.
func (l *Ledger) Release(id string) {
	l.mu.Lock()
	release := l.handles[id]
	delete(l.handles, id)
	l.mu.Unlock()

	if release != nil {
		release()
	}
}

// Sweep force-releases every registered handle and returns how many there
// were. Called before a new call is dialed.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	handles := l.handles
	l.handles = make(map[string]func())
	l.mu.Unlock()

	for _, release := range handles {
		if release != nil {
			release()
		}
	}
	return len(handles)
}

// Len reports the number of live handles.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}
