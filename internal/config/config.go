// Package config loads the YAML configuration file that defines providers,
// models and process-wide defaults.
//
// A missing or unparsable file is logged and treated as an empty config so
// the process stays up; chat requests then fail with a NotFound model until
// the file is fixed and reloaded.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/logging"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "config.yml"

// Config mirrors config.yml.
type Config struct {
	// DefaultModel is the "provider.model" id used when a conversation has none.
	DefaultModel string `yaml:"default_model" jsonschema:"example=openai.gpt-4o-mini"`

	// DefaultParameters apply to conversations that never overrode them.
	DefaultParameters Parameters `yaml:"default_parameters"`

	Providers map[string]Provider `yaml:"providers"`

	// Models maps provider name to model name to model definition.
	Models map[string]map[string]Model `yaml:"models"`

	// Proxy is the global outbound proxy. A provider's own proxy wins.
	Proxy Proxy `yaml:"proxy"`

	History History `yaml:"history"`

	// DataDir holds conversation, persona and rotation state. Default: data
	DataDir string `yaml:"data_dir"`

	Storage Storage `yaml:"storage"`
}

// Parameters are process-wide generation defaults. Unset fields are left
// to the upstream provider.
type Parameters struct {
	Temperature *float64 `yaml:"temperature" jsonschema:"minimum=0,maximum=2"`
	MaxTokens   *int     `yaml:"max_tokens" jsonschema:"minimum=1,maximum=8192"`
}

// Provider is one upstream endpoint family.
type Provider struct {
	// Kind is openai, anthropic or gemini. Empty infers it from the provider name.
	Kind    string   `yaml:"kind" jsonschema:"enum=openai,enum=anthropic,enum=gemini"`
	BaseURL string   `yaml:"base_url"`
	APIKeys []string `yaml:"api_keys"`
	// Proxy overrides the global proxy for this provider.
	Proxy string `yaml:"proxy"`
}

// Model is appended to its provider's base URL.
type Model struct {
	Path string `yaml:"path"`
	// Name is the upstream model name. Default: the model's key.
	Name string `yaml:"name,omitempty"`
}

type Proxy struct {
	Enable bool   `yaml:"enable"`
	URL    string `yaml:"url"`
}

// History bounds stored transcripts. Zero means the built-in defaults.
type History struct {
	TokenBudget int `yaml:"token_budget"`
	MaxMessages int `yaml:"max_messages"`
}

// Storage selects the persistence backend.
type Storage struct {
	// Backend is "file" (default) or "bolt".
	Backend string `yaml:"backend" jsonschema:"enum=file,enum=bolt"`
	// Path is the bolt database file. Default: <data_dir>/aichat.db
	Path string `yaml:"path"`
}

// Parse decodes YAML and expands ${VAR} references in credentials, base
// URLs and proxies.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	c.expandEnv()
	return &c, nil
}

func (c *Config) expandEnv() {
	for name, p := range c.Providers {
		p.BaseURL = os.ExpandEnv(p.BaseURL)
		p.Proxy = os.ExpandEnv(p.Proxy)
		keys := make([]string, 0, len(p.APIKeys))
		for _, k := range p.APIKeys {
			if k = strings.TrimSpace(os.ExpandEnv(k)); k != "" {
				keys = append(keys, k)
			}
		}
		p.APIKeys = keys
		c.Providers[name] = p
	}
	c.Proxy.URL = os.ExpandEnv(c.Proxy.URL)
}

// Manager owns the current Config snapshot. Readers get a consistent
// snapshot; Reload swaps it atomically.
type Manager struct {
	path string
	log  *slog.Logger

	mu  sync.RWMutex
	cur *Config
}

// Load reads path once and returns a Manager serving it.
func Load(path string, logger *slog.Logger) *Manager {
	m := &Manager{path: path, log: logging.OrDiscard(logger)}
	m.Reload()
	return m
}

// NewStatic returns a Manager over an in-memory Config. Reload is a no-op.
func NewStatic(c *Config) *Manager {
	if c == nil {
		c = &Config{}
	}
	return &Manager{cur: c, log: logging.Discard()}
}

// Reload re-reads the file. On failure the config becomes empty, matching
// startup behaviour. It returns the load error, if any, for reporting.
func (m *Manager) Reload() error {
	if m.path == "" {
		return nil
	}
	c, err := m.read()
	if err != nil {
		m.log.Error("config_load_failed", "path", m.path, "error", err)
		c = &Config{}
	} else {
		m.log.Info("config_loaded", "path", m.path, "providers", len(c.Providers), "default_model", c.DefaultModel)
	}
	m.mu.Lock()
	m.cur = c
	m.mu.Unlock()
	return err
}

func (m *Manager) read() (*Config, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %s not found", m.path)
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(b)
}

// Current returns the active snapshot. Callers must not mutate it.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// ListModels returns every configured "provider.model" id, sorted.
func (m *Manager) ListModels() []string {
	c := m.Current()
	var out []string
	for p, models := range c.Models {
		for name := range models {
			out = append(out, p+"."+name)
		}
	}
	sort.Strings(out)
	return out
}

// HasModel reports whether id is a configured model.
func (m *Manager) HasModel(id string) bool {
	p, name, ok := strings.Cut(id, ".")
	if !ok {
		return false
	}
	_, found := m.Current().Models[p][name]
	return found
}

// Resolved is everything needed to call one model.
type Resolved struct {
	ID          string
	Provider    string
	Kind        string
	Model       string
	BaseURL     string
	Path        string
	FullURL     string
	Credentials []string
	ProxyURL    string
}

// ResolveModel resolves id, or the default model when id is empty. The
// provider part ends at the first dot so model names may contain dots.
func (m *Manager) ResolveModel(id string) (Resolved, error) {
	c := m.Current()
	if id == "" {
		id = c.DefaultModel
	}
	if id == "" {
		return Resolved{}, apperr.NotFound("no model selected and no default_model configured")
	}
	pname, mname, ok := strings.Cut(id, ".")
	if !ok || pname == "" || mname == "" {
		return Resolved{}, apperr.InvalidInput("invalid model id %q, expected provider.model", id)
	}
	p, ok := c.Providers[pname]
	if !ok {
		return Resolved{}, apperr.NotFound("provider %q is not configured", pname)
	}
	model, ok := c.Models[pname][mname]
	if !ok {
		return Resolved{}, apperr.NotFound("model %q is not configured", id)
	}

	r := Resolved{
		ID:          id,
		Provider:    pname,
		Kind:        p.Kind,
		Model:       mname,
		BaseURL:     p.BaseURL,
		Path:        model.Path,
		FullURL:     strings.TrimSuffix(p.BaseURL, "/") + model.Path,
		Credentials: append([]string(nil), p.APIKeys...),
		ProxyURL:    p.Proxy,
	}
	if model.Name != "" {
		r.Model = model.Name
	}
	if r.ProxyURL == "" && c.Proxy.Enable {
		r.ProxyURL = c.Proxy.URL
	}
	return r, nil
}
