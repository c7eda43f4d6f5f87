package session

import (
	"github.com/patrickmn/go-cache"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// MemoryStore keeps the session for the lifetime of the process. Entries never expire.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Save(key entity.ProviderKey) error {
	s.cache.Set(port.SessionKeyWallet, string(key), cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Load() (entity.ProviderKey, bool, error) {
	v, ok := s.cache.Get(port.SessionKeyWallet)
	if !ok {
		return "", false, nil
	}
	key, _ := v.(string)
	return entity.ProviderKey(key), true, nil
}

func (s *MemoryStore) MarkConnected() error {
	s.cache.Set(port.SessionKeyConnected, markerValue, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) IsMarkedConnected() (bool, error) {
	_, ok := s.cache.Get(port.SessionKeyConnected)
	return ok, nil
}

func (s *MemoryStore) ClearConnected() error {
	s.cache.Delete(port.SessionKeyConnected)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.cache.Delete(port.SessionKeyWallet)
	s.cache.Delete(port.SessionKeyConnected)
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
