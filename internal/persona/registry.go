// Package persona holds the static catalog of persona definitions. The
// catalog is pure data: it is parsed once at process start and never mutated
// afterwards.
package persona

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	app_errors "berean/backend/internal/errors"
	"berean/backend/internal/model"
)

//go:embed personas.yaml
var defaultCatalog []byte

type catalogFile struct {
	Personas []model.Persona `yaml:"personas"`
}

// Registry is the loaded persona catalog.
type Registry struct {
	ordered []model.Persona
	byID    map[string]model.Persona
}

// Load reads the catalog from the given path, or from the embedded default
// catalog when path is empty.
func Load(path string) (*Registry, error) {
	raw := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read persona catalog %s: %w", path, err)
		}
		raw = data
	}
	return Parse(raw)
}

// Parse builds a Registry from raw YAML. Every persona needs an id, a name
// and an instruction block; duplicate ids are rejected.
func Parse(raw []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("could not parse persona catalog: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("%w: persona catalog is empty", app_errors.ErrValidation)
	}

	reg := &Registry{byID: make(map[string]model.Persona, len(file.Personas))}
	for _, p := range file.Personas {
		if p.ID == "" || p.Name == "" || p.SystemPrompt == "" {
			return nil, fmt.Errorf("%w: persona %q is missing id, name or system prompt", app_errors.ErrValidation, p.ID)
		}
		if _, exists := reg.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate persona id %q", app_errors.ErrConflict, p.ID)
		}
		reg.byID[p.ID] = p
		reg.ordered = append(reg.ordered, p)
	}
	return reg, nil
}

// List returns all personas in catalog order.
func (r *Registry) List() []model.Persona {
	out := make([]model.Persona, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get returns the persona with the given id.
func (r *Registry) Get(id string) (model.Persona, error) {
	p, ok := r.byID[id]
	if !ok {
		return model.Persona{}, fmt.Errorf("%w: persona %q", app_errors.ErrNotFound, id)
	}
	return p, nil
}
