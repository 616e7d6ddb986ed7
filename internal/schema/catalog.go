package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/fixedfield/internal/fixedpoint"
)

// Catalog holds one registry per model. It is built once at load time and
// is read-only afterwards.
type Catalog struct {
	specs      map[string]ModelSpec
	registries map[string]*fixedpoint.Registry
}

// NewCatalog builds the registries of every model. A model declared twice is
// an error.
func NewCatalog(models []ModelSpec) (*Catalog, error) {
	c := &Catalog{
		specs:      make(map[string]ModelSpec, len(models)),
		registries: make(map[string]*fixedpoint.Registry, len(models)),
	}

	for _, m := range models {
		if _, dup := c.registries[m.Name]; dup {
			return nil, fmt.Errorf("model %s declared more than once", m.Name)
		}
		reg, err := m.Registry()
		if err != nil {
			return nil, err
		}
		c.specs[m.Name] = m
		c.registries[m.Name] = reg
	}

	return c, nil
}

// Load reads a schema directory and builds its catalog, stopping at the
// first error.
func Load(dir string) (*Catalog, error) {
	result, errs := LoadDir(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewCatalog(result.Models)
}

// LoadSource builds a catalog from CUE source text.
func LoadSource(src string) (*Catalog, error) {
	result, errs := LoadString(src, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewCatalog(result.Models)
}

// Registry returns the registry of a model.
func (c *Catalog) Registry(model string) (*fixedpoint.Registry, bool) {
	reg, ok := c.registries[model]
	return reg, ok
}

// Spec returns the compiled spec of a model.
func (c *Catalog) Spec(model string) (ModelSpec, bool) {
	spec, ok := c.specs[model]
	return spec, ok
}

// Models returns the model names in sorted order.
func (c *Catalog) Models() []string {
	names := make([]string, 0, len(c.registries))
	for name := range c.registries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
