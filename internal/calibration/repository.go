package calibration

import (
	"encoding/json"
	"sync"
)

// Repository loads and saves the whole calibration store. Implementations
// must not hand out state shared with a previous Load.
type Repository interface {
	Load() (Store, error)
	Save(Store) error
}

// MemoryRepository keeps the store as serialized JSON in memory. Every Load
// returns an independent copy.
type MemoryRepository struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns a deep copy of the last saved store.
func (m *MemoryRepository) Load() (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store := make(Store)
	if len(m.data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(m.data, &store); err != nil {
		return nil, err
	}
	return store, nil
}

// Save replaces the stored snapshot.
func (m *MemoryRepository) Save(store Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
