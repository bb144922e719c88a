package session

import (
	"context"
	"sync"

	"github.com/MrEthical07/goAccount/principal"
)

// Memory keeps one user agent's principals in process memory. It is used by
// non-HTTP callers and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory returns an empty in-memory session.
func NewMemory() *Memory {
	return &Memory{entries: map[string]entry{}}
}

func (m *Memory) SignIn(ctx context.Context, scheme string, p *principal.Principal, props Properties) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[scheme] = entry{p: p, props: props}
	return nil
}

func (m *Memory) SignOut(ctx context.Context, scheme string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, scheme)
	return nil
}

func (m *Memory) Authenticate(ctx context.Context, scheme string) (*principal.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[scheme].p, nil
}

// Properties reports how the principal for scheme was persisted.
func (m *Memory) Properties(_ context.Context, scheme string) (Properties, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[scheme]
	return e.props, ok
}

// Schemes returns how many schemes currently hold a principal.
func (m *Memory) Schemes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
