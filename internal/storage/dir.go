package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/petasbytes/aichat/internal/fsops"
	"github.com/petasbytes/aichat/internal/safety"
)

// Dir stores each document as <root>/<ns>/<key>.json.
type Dir struct {
	root string
}

// NewDir resolves root and creates it if needed.
func NewDir(root string) (*Dir, error) {
	abs, err := safety.InitRoot(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", abs, err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute data directory.
func (d *Dir) Root() string { return d.root }

func (d *Dir) path(ns, key string) (string, error) {
	return safety.ResolveKeyPath(d.root, ns, key, ".json")
}

func (d *Dir) Load(ns, key string) ([]byte, error) {
	p, err := d.path(ns, key)
	if err != nil {
		return nil, err
	}
	b, err := fsops.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (d *Dir) Save(ns, key string, data []byte) error {
	p, err := d.path(ns, key)
	if err != nil {
		return err
	}
	return fsops.WriteFileAtomic(p, data)
}
