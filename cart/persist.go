package cart

import (
	"encoding/json"
	"sync"

	"vermilion/models"
	"vermilion/rdx"
)

// cartKeyPrefix is the fixed storage key namespace for persisted carts.
const cartKeyPrefix = "cart:"

// RedisPersister keeps one session's item sequence under cart:<session>.
// Only items are stored; drawer visibility is always closed after a reload.
type RedisPersister struct {
	key string
}

func NewRedisPersister(sessionID string) *RedisPersister {
	return &RedisPersister{key: cartKeyPrefix + sessionID}
}

func (p *RedisPersister) Save(items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return rdx.RdxSet(p.key, string(data), 0)
}

// Clear removes the key; an empty cart leaves no record behind.
func (p *RedisPersister) Clear() error {
	rdx.RdxDel(p.key)
	return nil
}

func (p *RedisPersister) Load() ([]models.CartItem, error) {
	raw, err := rdx.RdxGet(p.key)
	if err != nil || raw == "" {
		return nil, err
	}
	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Manager hands out the per-session store, constructing and rehydrating it
// on first access.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager() *Manager {
	return &Manager{stores: make(map[string]*Store)}
}

func (m *Manager) For(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}
	s := NewStore(NewRedisPersister(sessionID))
	m.stores[sessionID] = s
	return s
}
