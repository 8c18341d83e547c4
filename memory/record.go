package memory

import (
	"encoding/json"

	"github.com/petasbytes/aichat/internal/persona"
	"github.com/petasbytes/aichat/internal/windowing"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry.
type Message = windowing.Message

// Parameters are the per-conversation overrides. Nil numeric fields fall
// back to the process-wide defaults at read time.
type Parameters struct {
	Temperature   *float64 `json:"temperature"`
	MaxTokens     *int     `json:"max_tokens"`
	MemoryEnabled bool     `json:"memory_enabled"`
}

// UnmarshalJSON treats a missing memory_enabled as true.
func (p *Parameters) UnmarshalJSON(b []byte) error {
	type raw struct {
		Temperature   *float64 `json:"temperature"`
		MaxTokens     *int     `json:"max_tokens"`
		MemoryEnabled *bool    `json:"memory_enabled"`
	}
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	p.Temperature = r.Temperature
	p.MaxTokens = r.MaxTokens
	p.MemoryEnabled = r.MemoryEnabled == nil || *r.MemoryEnabled
	return nil
}

// Record is the persisted shape of one conversation.
type Record struct {
	// ModelID is "provider.model"; nil selects the configured default.
	ModelID    *string       `json:"model"`
	Persona    persona.Entry `json:"persona"`
	Parameters Parameters    `json:"parameters"`
	History    []Message     `json:"history"`
}

// UnmarshalJSON defaults memory_enabled to true when the parameters object
// itself is absent.
func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	p := plain{Parameters: Parameters{MemoryEnabled: true}}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// Defaults are the process-wide fallbacks merged into every Get. Nil
// numeric fields leave the value to the upstream provider.
type Defaults struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// Settings are the effective values for a conversation after the merge.
type Settings struct {
	Model         string
	Temperature   *float64
	MaxTokens     *int
	MemoryEnabled bool
}

// Conversation is the result of Store.Get: the stored record plus the
// effective settings computed from it.
type Conversation struct {
	ID       string
	Record   Record
	Settings Settings
}

func merge(rec Record, d Defaults) Settings {
	s := Settings{
		Model:         d.Model,
		Temperature:   d.Temperature,
		MaxTokens:     d.MaxTokens,
		MemoryEnabled: rec.Parameters.MemoryEnabled,
	}
	if rec.ModelID != nil && *rec.ModelID != "" {
		s.Model = *rec.ModelID
	}
	if rec.Parameters.Temperature != nil {
		s.Temperature = rec.Parameters.Temperature
	}
	if rec.Parameters.MaxTokens != nil {
		s.MaxTokens = rec.Parameters.MaxTokens
	}
	return s
}
