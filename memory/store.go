package memory

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/metrics"
	"github.com/petasbytes/aichat/internal/persona"
	"github.com/petasbytes/aichat/internal/storage"
	"github.com/petasbytes/aichat/internal/telemetry"
	"github.com/petasbytes/aichat/internal/windowing"
)

const namespace = "groups"

// PersonaSource resolves persona names, falling back to the default entry.
type PersonaSource interface {
	Get(name string) persona.Entry
}

// Options configures a Store. Backend and Personas are required.
type Options struct {
	Backend  storage.Backend
	Personas PersonaSource
	// Defaults is consulted on every Get. Nil means zero defaults.
	Defaults func() Defaults
	// Policy is consulted on every Save. Nil means windowing defaults.
	Policy  func() windowing.Policy
	Counter windowing.TokenCounter
	Logger  *slog.Logger
}

// Store is the conversation state store. It does not serialise access per
// conversation; callers hold the conversation's guard around mutations.
type Store struct {
	backend  storage.Backend
	personas PersonaSource
	defaults func() Defaults
	policy   func() windowing.Policy
	counter  windowing.TokenCounter
	log      *slog.Logger
}

func NewStore(opts Options) *Store {
	s := &Store{
		backend:  opts.Backend,
		personas: opts.Personas,
		defaults: opts.Defaults,
		policy:   opts.Policy,
		counter:  opts.Counter,
		log:      logging.OrDiscard(opts.Logger),
	}
	if s.defaults == nil {
		s.defaults = func() Defaults { return Defaults{} }
	}
	if s.policy == nil {
		s.policy = func() windowing.Policy { return windowing.Policy{} }
	}
	if s.counter == nil {
		s.counter = windowing.HeuristicCounter{}
	}
	return s
}

func (s *Store) fresh() Record {
	return Record{
		Persona:    s.personas.Get(persona.DefaultName),
		Parameters: Parameters{MemoryEnabled: true},
		History:    []Message{},
	}
}

// Get returns the conversation for id merged with the current defaults.
// A missing, unreadable or corrupt record yields a fresh default record.
func (s *Store) Get(id string) Conversation {
	rec := s.load(id)
	return Conversation{ID: id, Record: rec, Settings: merge(rec, s.defaults())}
}

func (s *Store) load(id string) Record {
	b, err := s.backend.Load(namespace, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("group_load_failed", "group", id, "error", err)
			metrics.PersistenceFailures.WithLabelValues("load").Inc()
		}
		return s.fresh()
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		s.log.Warn("group_corrupt", "group", id, "error", err)
		metrics.PersistenceFailures.WithLabelValues("load").Inc()
		return s.fresh()
	}
	if rec.Persona.Name == "" {
		rec.Persona = s.personas.Get(persona.DefaultName)
	} else if rec.Persona.Description == "" {
		e := s.personas.Get(rec.Persona.Name)
		rec.Persona.Description = e.Description
	}
	if rec.History == nil {
		rec.History = []Message{}
	}
	return rec
}

// Save trims rec.History in place and writes rec. Write failures are
// logged and swallowed; rec stays authoritative for the caller.
func (s *Store) Save(id string, rec *Record) {
	trimmed, stats := windowing.Trim(rec.History, s.policy(), s.counter)
	if stats.Evicted() {
		rec.History = append([]Message(nil), trimmed...)
		metrics.ObserveEvictions(stats.BudgetEvicted, stats.CapEvicted)
		telemetry.HistoryTrimmed(id, stats.Before, stats.After, stats.BudgetEvicted, stats.CapEvicted, stats.OverBudgetFloor)
		s.log.Debug("history_trimmed", "group", id, "before", stats.Before, "after", stats.After,
			"budget_evicted", stats.BudgetEvicted, "cap_evicted", stats.CapEvicted)
	}
	if rec.History == nil {
		rec.History = []Message{}
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		s.log.Error("group_marshal_failed", "group", id, "error", err)
		metrics.PersistenceFailures.WithLabelValues("save").Inc()
		return
	}
	if err := s.backend.Save(namespace, id, b); err != nil {
		s.log.Error("group_save_failed", "group", id, "error", err)
		metrics.PersistenceFailures.WithLabelValues("save").Inc()
	}
}

// Update loads id, applies fn to the record and saves it.
func (s *Store) Update(id string, fn func(*Record)) Conversation {
	rec := s.load(id)
	fn(&rec)
	s.Save(id, &rec)
	return Conversation{ID: id, Record: rec, Settings: merge(rec, s.defaults())}
}

// DeleteConversationPairs removes the n most recent user/assistant pairs,
// i.e. min(2n, len) messages from the tail, and returns how many went.
// n <= 0 removes nothing.
func (s *Store) DeleteConversationPairs(id string, n int) int {
	removed := 0
	s.Update(id, func(r *Record) {
		if n <= 0 {
			return
		}
		removed = min(2*n, len(r.History))
		r.History = r.History[:len(r.History)-removed]
	})
	return removed
}

// ResetHistory empties the transcript; persona, model and parameters stay.
func (s *Store) ResetHistory(id string) {
	s.Update(id, func(r *Record) { r.History = []Message{} })
}

func (s *Store) SetMemoryEnabled(id string, enabled bool) {
	s.Update(id, func(r *Record) { r.Parameters.MemoryEnabled = enabled })
}

func (s *Store) MemoryEnabled(id string) bool {
	return s.load(id).Parameters.MemoryEnabled
}
