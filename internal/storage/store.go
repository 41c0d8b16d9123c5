// Package storage persists the small amount of client state that must survive
// a restart: the session and, optionally, the cart.
package storage

import (
	"context"
	"sync"
)

// Store is a string key/value store. A missing key is reported with ok=false
// and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// NoopStore stands in when no durable storage is available: reads miss and
// writes are dropped.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NoopStore) Set(context.Context, string, string) error         { return nil }
func (NoopStore) Delete(context.Context, string) error              { return nil }
