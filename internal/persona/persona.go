// Package persona holds the registry of named system prompts.
//
// Conversations copy an Entry by value when they switch to it; editing or
// removing a registry entry never changes a conversation that already holds
// a copy.
package persona

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/storage"
)

const (
	DefaultName        = "default"
	DefaultDescription = "You are a helpful assistant."

	namespace = "data"
	key       = "personas"
)

// Entry is a named system prompt.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// seed is written when no registry document exists yet.
func seed() map[string]Entry {
	return map[string]Entry{
		DefaultName: {Name: DefaultName, Description: DefaultDescription},
		"catgirl": {
			Name:        "catgirl",
			Description: "You are a playful catgirl. Answer helpfully, end sentences with \"nya~\" and keep replies short.",
		},
	}
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	backend storage.Backend
	log     *slog.Logger
}

// Open loads the registry document once. A missing document is seeded and
// persisted; an unreadable one is logged and replaced in memory by the seed.
func Open(backend storage.Backend, logger *slog.Logger) *Registry {
	r := &Registry{backend: backend, log: logging.OrDiscard(logger)}

	b, err := backend.Load(namespace, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.entries = seed()
		r.persistLocked()
		return r
	case err != nil:
		r.log.Warn("persona_registry_load_failed", "error", err)
		r.entries = seed()
		return r
	}

	var doc map[string]Entry
	if err := json.Unmarshal(b, &doc); err != nil {
		r.log.Warn("persona_registry_corrupt", "error", err)
		r.entries = seed()
		return r
	}
	r.entries = make(map[string]Entry, len(doc)+1)
	for name, e := range doc {
		if e.Name == "" {
			e.Name = name
		}
		r.entries[name] = e
	}
	if _, ok := r.entries[DefaultName]; !ok {
		r.entries[DefaultName] = Entry{Name: DefaultName, Description: DefaultDescription}
	}
	return r
}

// List returns every persona name in ascending order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named entry, or the default entry when name is unknown.
func (r *Registry) Get(name string) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e
	}
	return r.entries[DefaultName]
}

// Lookup returns the named entry without falling back.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Add creates or overwrites the entry for name.
func (r *Registry) Add(name, description string) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return apperr.InvalidInput("persona name must not be empty")
	}
	if description == "" {
		return apperr.InvalidInput("persona description must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Entry{Name: name, Description: description}
	r.persistLocked()
	return nil
}

// Remove deletes name. The default entry can be edited but never removed.
func (r *Registry) Remove(name string) error {
	if name == DefaultName {
		return apperr.InvalidOperation("persona %q cannot be removed", DefaultName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return apperr.NotFound("persona %q does not exist", name)
	}
	delete(r.entries, name)
	r.persistLocked()
	return nil
}

// persistLocked writes the registry; failures are logged and swallowed.
func (r *Registry) persistLocked() {
	b, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		r.log.Error("persona_registry_marshal_failed", "error", err)
		return
	}
	if err := r.backend.Save(namespace, key, b); err != nil {
		r.log.Error("persona_registry_save_failed", "error", err)
	}
}
