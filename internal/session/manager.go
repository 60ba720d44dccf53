package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/intervoxlabs/intervox/internal/utils"
)

// Manager owns the live controllers, one per session. Sessions are
// process-local and ephemeral; a finished session stays addressable until
// the manager shuts down so the display surface can still read its snapshot.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*Controller)}
}

// Start creates a fresh controller and opens its call. The new session id is
// returned even while the call is still being confirmed.
func (m *Manager) Start(ctx context.Context, interviewType, role string) (*Controller, error) {
	const op = "Manager.Start"

	if interviewType == "" || role == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewType and role are required", nil)
	}

	c := NewController(uuid.NewString(), interviewType, role, m.deps)

	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()

	if err := c.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, c.ID())
		m.mu.Unlock()
		return nil, err
	}
	return c, nil
}

func (m *Manager) Get(sessionID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[sessionID]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "Manager.Get", "session not found", utils.ErrNotFound)
	}
	return c, nil
}

// Shutdown tears down every live controller.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Teardown()
	}
}
