// Package chat is the orchestration surface the command layer calls.
//
// Every operation that mutates a conversation holds that conversation's
// guard for its duration, so a pending model call is never interleaved
// with another write to the same record. A busy conversation rejects the
// operation with a Busy error instead of waiting.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/config"
	"github.com/petasbytes/aichat/internal/guard"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/metrics"
	"github.com/petasbytes/aichat/internal/persona"
	"github.com/petasbytes/aichat/internal/rotation"
	"github.com/petasbytes/aichat/internal/runner"
	"github.com/petasbytes/aichat/internal/storage"
	"github.com/petasbytes/aichat/internal/telemetry"
	"github.com/petasbytes/aichat/internal/windowing"
	"github.com/petasbytes/aichat/memory"
)

// Deps are the collaborators of a Service. All are required except Logger.
type Deps struct {
	Store    *memory.Store
	Personas *persona.Registry
	Rotator  *rotation.Rotator
	Guard    *guard.Guard
	Config   *config.Manager
	Runner   *runner.Runner
	Logger   *slog.Logger
}

type Service struct {
	store    *memory.Store
	personas *persona.Registry
	rotator  *rotation.Rotator
	guard    *guard.Guard
	cfg      *config.Manager
	runner   *runner.Runner
	log      *slog.Logger
}

func New(d Deps) *Service {
	return &Service{
		store:    d.Store,
		personas: d.Personas,
		rotator:  d.Rotator,
		guard:    d.Guard,
		cfg:      d.Config,
		runner:   d.Runner,
		log:      logging.OrDiscard(d.Logger),
	}
}

// NewStore builds a conversation store whose defaults and trimming policy
// follow the current config snapshot.
func NewStore(cfg *config.Manager, backend storage.Backend, personas memory.PersonaSource, logger *slog.Logger) *memory.Store {
	return memory.NewStore(memory.Options{
		Backend:  backend,
		Personas: personas,
		Defaults: func() memory.Defaults {
			c := cfg.Current()
			return memory.Defaults{
				Model:       c.DefaultModel,
				Temperature: c.DefaultParameters.Temperature,
				MaxTokens:   c.DefaultParameters.MaxTokens,
			}
		},
		Policy: func() windowing.Policy {
			h := cfg.Current().History
			return windowing.Policy{TokenBudget: h.TokenBudget, MaxMessages: h.MaxMessages}
		},
		Logger: logger,
	})
}

// ErrBusy is returned while a conversation has a model call in flight.
var ErrBusy = apperr.Busy("still waiting for the previous reply, try again shortly")

// exclusive runs fn while holding id's guard.
func (s *Service) exclusive(id string, fn func() error) error {
	if !s.guard.TryAcquire(id) {
		metrics.BusyRejections.Inc()
		return ErrBusy
	}
	defer s.guard.Release(id)
	return fn()
}

// Chat appends text as a user turn, calls the conversation's model and
// returns the reply. The user turn is persisted even when the call fails;
// the reply is stored only when memory is enabled.
func (s *Service) Chat(ctx context.Context, id, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ChatTurns.WithLabelValues(metrics.OutcomeRejected).Inc()
		return "", apperr.InvalidInput("message must not be empty")
	}

	var reply string
	err := s.exclusive(id, func() error {
		var err error
		reply, err = s.chatLocked(ctx, id, text)
		return err
	})
	switch {
	case err == nil:
		metrics.ChatTurns.WithLabelValues(metrics.OutcomeOK).Inc()
	case apperr.Is(err, apperr.KindBusy):
		metrics.ChatTurns.WithLabelValues(metrics.OutcomeBusy).Inc()
	case apperr.Is(err, apperr.KindUpstreamFailure):
		metrics.ChatTurns.WithLabelValues(metrics.OutcomeUpstream).Inc()
	default:
		metrics.ChatTurns.WithLabelValues(metrics.OutcomeRejected).Inc()
	}
	return reply, err
}

func (s *Service) chatLocked(ctx context.Context, id, text string) (string, error) {
	conv := s.store.Get(id)
	resolved, err := s.cfg.ResolveModel(conv.Settings.Model)
	if err != nil {
		s.log.Warn("model_unresolved", "group", id, "model", conv.Settings.Model, "error", err)
		return "", err
	}
	index, next, err := s.rotator.Next(resolved.Provider, len(resolved.Credentials))
	if err != nil {
		s.log.Warn("no_credentials", "group", id, "provider", resolved.Provider)
		return "", err
	}
	metrics.CredentialRotations.WithLabelValues(resolved.Provider).Inc()
	telemetry.CredentialRotated(resolved.Provider, index, next)

	rec := conv.Record
	rec.History = append(rec.History, memory.Message{Role: memory.RoleUser, Content: text})

	reply, err := s.runner.RunTurn(ctx, runner.Turn{
		Group:       id,
		Model:       resolved,
		Credential:  resolved.Credentials[index],
		System:      rec.Persona.Description,
		History:     rec.History,
		Temperature: conv.Settings.Temperature,
		MaxTokens:   conv.Settings.MaxTokens,
	})
	if err == nil && rec.Parameters.MemoryEnabled {
		rec.History = append(rec.History, memory.Message{Role: memory.RoleAssistant, Content: reply})
	}
	s.store.Save(id, &rec)
	return reply, err
}

// SwitchPersona copies the named registry entry into the conversation and
// clears its history.
func (s *Service) SwitchPersona(id, name string) (persona.Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return persona.Entry{}, apperr.InvalidInput("persona name must not be empty")
	}
	e, ok := s.personas.Lookup(name)
	if !ok {
		return persona.Entry{}, apperr.NotFound("persona %q does not exist", name)
	}
	err := s.exclusive(id, func() error {
		s.store.Update(id, func(r *memory.Record) {
			r.Persona = e
			r.History = []memory.Message{}
		})
		return nil
	})
	return e, err
}

// SetPersonaDescription gives the conversation its own system prompt while
// keeping the persona name. The registry is not touched.
func (s *Service) SetPersonaDescription(id, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return apperr.InvalidInput("persona description must not be empty")
	}
	return s.exclusive(id, func() error {
		s.store.Update(id, func(r *memory.Record) { r.Persona.Description = description })
		return nil
	})
}

func (s *Service) AddPersona(name, description string) error {
	return s.personas.Add(name, description)
}

func (s *Service) RemovePersona(name string) error {
	return s.personas.Remove(strings.TrimSpace(name))
}

func (s *Service) ListPersonas() []string { return s.personas.List() }

// SetModel selects a configured "provider.model" for the conversation.
func (s *Service) SetModel(id, modelID string) error {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return apperr.InvalidInput("model id must not be empty")
	}
	if !s.cfg.HasModel(modelID) {
		return apperr.NotFound("model %q is not configured", modelID)
	}
	return s.exclusive(id, func() error {
		s.store.Update(id, func(r *memory.Record) { r.ModelID = &modelID })
		return nil
	})
}

// CurrentModel returns the model id the conversation would use now.
func (s *Service) CurrentModel(id string) (string, error) {
	conv := s.store.Get(id)
	r, err := s.cfg.ResolveModel(conv.Settings.Model)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Service) ListModels() []string { return s.cfg.ListModels() }

// ToggleMemory controls whether assistant replies are kept in history.
func (s *Service) ToggleMemory(id string, enabled bool) error {
	return s.exclusive(id, func() error {
		s.store.SetMemoryEnabled(id, enabled)
		return nil
	})
}

// DeleteConversation removes the n most recent exchanges and returns the
// number of messages removed.
func (s *Service) DeleteConversation(id string, n int) (int, error) {
	if n <= 0 {
		return 0, apperr.InvalidInput("number of exchanges must be greater than 0")
	}
	removed := 0
	err := s.exclusive(id, func() error {
		removed = s.store.DeleteConversationPairs(id, n)
		return nil
	})
	return removed, err
}

func (s *Service) ResetHistory(id string) error {
	return s.exclusive(id, func() error {
		s.store.ResetHistory(id)
		return nil
	})
}

// ReloadConfig re-reads the config file. A failed reload leaves an empty
// config in place and is reported.
func (s *Service) ReloadConfig() error {
	if err := s.cfg.Reload(); err != nil {
		return apperr.Wrap(apperr.KindPersistenceFailure, err, "config reload failed")
	}
	return nil
}

// Conversation exposes the merged state of id, for inspection commands.
func (s *Service) Conversation(id string) memory.Conversation {
	return s.store.Get(id)
}
