package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps flat dot-separated settings in process. Save commits the
// working set; Load discards anything set since the last Save.
type ConfigStore struct {
	mu        sync.RWMutex
	working   map[string]any
	committed map[string]any
}

func NewConfigStore() *ConfigStore {
	return NewConfigStoreFrom(nil)
}

// NewConfigStoreFrom seeds the store. The seed counts as committed.
func NewConfigStoreFrom(seed map[string]any) *ConfigStore {
	committed := make(map[string]any, len(seed))
	maps.Copy(committed, seed)
	return &ConfigStore{working: maps.Clone(committed), committed: committed}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.working[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.working[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	s.committed = maps.Clone(s.working)
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Load() error {
	s.mu.Lock()
	s.working = maps.Clone(s.committed)
	s.mu.Unlock()
	return nil
}

// Path reports ":memory:" so callers can tell the store is not file-backed.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
