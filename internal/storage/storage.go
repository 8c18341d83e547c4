// Package storage provides the persistence backends behind the conversation
// store, the persona registry and the credential rotator.
//
// Documents are opaque bytes addressed by (namespace, key). Callers own the
// encoding; backends only guarantee that a Save is either fully visible to
// the next Load or not at all.
package storage

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no document exists for the key.
var ErrNotFound = errors.New("storage: not found")

// Backend is the injected persistence seam.
type Backend interface {
	Load(ns, key string) ([]byte, error)
	Save(ns, key string, data []byte) error
}

// Memory is an in-process Backend, used by tests and as a fallback when no
// data directory is configured.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(ns, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.docs[ns+"/"+key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) Save(ns, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.docs[ns+"/"+key] = cp
	m.mu.Unlock()
	return nil
}
