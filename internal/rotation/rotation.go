// Package rotation spreads calls round-robin across a provider's credentials.
//
// The cursor per provider is persisted after every advance. Next serialises
// the read-modify-write with a mutex, so in-process callers always advance
// by exactly one. Separate processes sharing the same backend are not
// coordinated and degrade to approximately round-robin.
package rotation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/storage"
)

const (
	namespace = "data"
	key       = "key_rotation"
)

// ErrNoCredentials is returned by Next for an empty pool.
var ErrNoCredentials = apperr.InvalidOperation("no credentials configured")

type Rotator struct {
	mu      sync.Mutex
	cursors map[string]int
	backend storage.Backend
	log     *slog.Logger
}

// Open loads the rotation state once. Missing or unreadable state starts
// every provider at zero.
func Open(backend storage.Backend, logger *slog.Logger) *Rotator {
	r := &Rotator{backend: backend, cursors: map[string]int{}, log: logging.OrDiscard(logger)}
	b, err := backend.Load(namespace, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("key_rotation_load_failed", "error", err)
		}
		return r
	}
	if err := json.Unmarshal(b, &r.cursors); err != nil {
		r.log.Warn("key_rotation_corrupt", "error", err)
		r.cursors = map[string]int{}
	}
	return r
}

// Next returns the credential index to use for this call and the cursor
// persisted for the following one.
func (r *Rotator) Next(provider string, poolSize int) (index, next int, err error) {
	if poolSize <= 0 {
		return 0, 0, ErrNoCredentials
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.cursors[provider]
	if cur < 0 {
		cur = 0
	}
	index = cur % poolSize
	next = (index + 1) % poolSize
	r.cursors[provider] = next
	r.persistLocked()
	return index, next, nil
}

// Cursor returns the stored cursor for provider, 0 when unset.
func (r *Rotator) Cursor(provider string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[provider]
}

func (r *Rotator) persistLocked() {
	b, err := json.Marshal(r.cursors)
	if err != nil {
		r.log.Error("key_rotation_marshal_failed", "error", err)
		return
	}
	if err := r.backend.Save(namespace, key, b); err != nil {
		r.log.Error("key_rotation_save_failed", "error", err)
	}
}
