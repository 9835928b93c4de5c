package session

import (
	"context"
	"sync"

	"storefront-admin/internal/storage"

	"github.com/rs/zerolog"
)

// Manager hands out one Store per browser id. Only stores holding a token
// or remembered credentials are cached; anonymous browsers get a fresh
// store on every request, so cookie-less clients cannot grow the cache.
type Manager struct {
	kv     storage.KV
	sealer *Sealer
	logger zerolog.Logger

	mu     sync.Mutex
	stores map[string]*Store
	hooks  []func(id string)
}

func NewManager(kv storage.KV, sealer *Sealer, logger zerolog.Logger) *Manager {
	return &Manager{
		kv:     kv,
		sealer: sealer,
		logger: logger,
		stores: make(map[string]*Store),
	}
}

func (m *Manager) Get(ctx context.Context, id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s, nil
	}

	s, err := Load(ctx, id, m.kv, m.sealer, m.logger)
	if err != nil {
		return nil, err
	}
	s.onLogout = m.forget
	if s.retained() {
		m.stores[id] = s
	}
	return s, nil
}

// OnLogout registers fn to run with the browser id whenever a store handed
// out by m logs out.
func (m *Manager) OnLogout(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.stores, id)
	hooks := make([]func(string), len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}
}

// Len reports how many stores are cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
