package persona_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/persona"
	"github.com/petasbytes/aichat/internal/storage"
)

func TestOpen_SeedsAndPersists(t *testing.T) {
	backend := storage.NewMemory()
	r := persona.Open(backend, nil)

	names := r.List()
	if len(names) < 2 || names[0] != "catgirl" || names[1] != "default" {
		t.Fatalf("unexpected seeded names: %v", names)
	}
	if got := r.Get("default").Description; got != persona.DefaultDescription {
		t.Fatalf("default description=%q", got)
	}

	raw, err := backend.Load("data", "personas")
	if err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
	var doc map[string]persona.Entry
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("persisted doc invalid: %v", err)
	}
	if doc["default"].Name != "default" {
		t.Fatalf("persisted doc missing default: %#v", doc)
	}
}

func TestOpen_CorruptDocumentKeepsSeedInMemory(t *testing.T) {
	backend := storage.NewMemory()
	_ = backend.Save("data", "personas", []byte("{not json"))

	r := persona.Open(backend, nil)
	if r.Get("default").Description != persona.DefaultDescription {
		t.Fatal("expected seeded default after corrupt load")
	}
	raw, _ := backend.Load("data", "personas")
	if string(raw) != "{not json" {
		t.Fatal("corrupt document must not be overwritten until the next mutation")
	}
}

func TestOpen_LoadsExistingAndRestoresDefault(t *testing.T) {
	backend := storage.NewMemory()
	_ = backend.Save("data", "personas", []byte(`{"pirate":{"name":"pirate","description":"Arr."}}`))

	r := persona.Open(backend, nil)
	if got := r.List(); len(got) != 2 || got[0] != "default" || got[1] != "pirate" {
		t.Fatalf("List=%v", got)
	}
}

func TestGet_UnknownFallsBackToDefault(t *testing.T) {
	r := persona.Open(storage.NewMemory(), nil)
	got := r.Get("nope")
	if got.Name != "default" || got.Description == "" {
		t.Fatalf("Get(unknown)=%+v", got)
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Fatal("Lookup must not fall back")
	}
}

func TestAdd_UpsertsAndPersists(t *testing.T) {
	backend := storage.NewMemory()
	r := persona.Open(backend, nil)

	if err := r.Add("pirate", "Speak like a pirate."); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("pirate", "Speak like a polite pirate."); err != nil {
		t.Fatalf("Add overwrite: %v", err)
	}
	if got := r.Get("pirate").Description; got != "Speak like a polite pirate." {
		t.Fatalf("overwrite lost: %q", got)
	}

	reopened := persona.Open(backend, nil)
	if got := reopened.Get("pirate").Description; got != "Speak like a polite pirate." {
		t.Fatalf("not persisted: %q", got)
	}
}

func TestAdd_RejectsEmpty(t *testing.T) {
	r := persona.Open(storage.NewMemory(), nil)
	for _, tc := range [][2]string{{"", "x"}, {"x", "  "}} {
		if err := r.Add(tc[0], tc[1]); !apperr.Is(err, apperr.KindInvalidInput) {
			t.Fatalf("Add(%q,%q) err=%v want invalid input", tc[0], tc[1], err)
		}
	}
}

func TestRemove(t *testing.T) {
	r := persona.Open(storage.NewMemory(), nil)

	if err := r.Remove("default"); !apperr.Is(err, apperr.KindInvalidOperation) {
		t.Fatalf("Remove(default) err=%v", err)
	}
	if err := r.Remove("nonexistent"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("Remove(nonexistent) err=%v", err)
	}
	if err := r.Remove("catgirl"); err != nil {
		t.Fatalf("Remove(catgirl): %v", err)
	}
	if _, ok := r.Lookup("catgirl"); ok {
		t.Fatal("catgirl still present")
	}
}

type failingBackend struct{ storage.Backend }

func (failingBackend) Save(string, string, []byte) error { return errors.New("disk full") }

func TestMutations_SwallowWriteFailures(t *testing.T) {
	r := persona.Open(failingBackend{storage.NewMemory()}, nil)
	if err := r.Add("pirate", "Arr."); err != nil {
		t.Fatalf("write failure must be swallowed, got %v", err)
	}
	if r.Get("pirate").Description != "Arr." {
		t.Fatal("in-memory state must still reflect the mutation")
	}
}
