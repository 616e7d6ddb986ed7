package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fixedfield/internal/fixedpoint"
)

// Declaration is one fixed_point entry: a set of fields sharing a scale.
// Width and Base are nil when the declaration leaves them to the defaults.
type Declaration struct {
	Fields []string `json:"fields"`
	Width  *int     `json:"width,omitempty"`
	Base   *int64   `json:"base,omitempty"`
}

// Options converts the declaration into registration options.
func (d Declaration) Options() []fixedpoint.Option {
	var opts []fixedpoint.Option
	if d.Width != nil {
		opts = append(opts, fixedpoint.WithWidth(*d.Width))
	}
	if d.Base != nil {
		opts = append(opts, fixedpoint.WithBase(*d.Base))
	}
	return opts
}

// Scale returns the scale the declaration registers its fields with.
func (d Declaration) Scale() fixedpoint.ScaleSpec {
	s := fixedpoint.DefaultScale()
	if d.Width != nil {
		s.Width = *d.Width
	}
	if d.Base != nil {
		s.Base = *d.Base
	}
	return s
}

// ModelSpec is a compiled model definition.
type ModelSpec struct {
	Name         string        `json:"name"`
	Declarations []Declaration `json:"declarations"`
}

// Registry builds the model's registry by applying its declarations in
// order. A later declaration naming an earlier field replaces its scale.
func (m *ModelSpec) Registry() (*fixedpoint.Registry, error) {
	reg := fixedpoint.NewRegistry(m.Name)
	for i, d := range m.Declarations {
		if err := reg.RegisterFields(d.Fields, d.Options()...); err != nil {
			return nil, fmt.Errorf("model %s: fixed_point[%d]: %w", m.Name, i, err)
		}
	}
	return reg, nil
}

// CompileModel parses a CUE value into a ModelSpec.
//
// The value is the model struct itself, e.g. the value at "model.Invoice":
//
//	model: Invoice: fixed_point: [
//		{fields: ["total", "tax"]},
//		{fields: ["rate"], width: 4},
//	]
//
// fixed_point may also be a single declaration struct. Keys other than
// fields, width and base are ignored.
func CompileModel(v cue.Value) (*ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ModelSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	fpVal := v.LookupPath(cue.ParsePath("fixed_point"))
	if !fpVal.Exists() {
		return nil, &CompileError{
			Field:   "fixed_point",
			Message: "fixed_point is required",
			Pos:     v.Pos(),
		}
	}

	if fpVal.IncompleteKind() == cue.ListKind {
		iter, err := fpVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			d, err := parseDeclaration(iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Declarations = append(spec.Declarations, d)
		}
	} else {
		d, err := parseDeclaration(fpVal)
		if err != nil {
			return nil, err
		}
		spec.Declarations = append(spec.Declarations, d)
	}

	if len(spec.Declarations) == 0 {
		return nil, &CompileError{
			Field:   "fixed_point",
			Message: "at least one declaration is required",
			Pos:     fpVal.Pos(),
		}
	}

	return spec, nil
}

// parseDeclaration parses {fields: [...], width?: int, base?: int}.
func parseDeclaration(v cue.Value) (Declaration, error) {
	var d Declaration

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return d, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return d, formatCUEError(err)
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return d, formatCUEError(err)
		}
		d.Fields = append(d.Fields, name)
	}
	if len(d.Fields) == 0 {
		return d, &CompileError{
			Field:   "fields",
			Message: "fields must list at least one field",
			Pos:     fieldsVal.Pos(),
		}
	}

	if widthVal := v.LookupPath(cue.ParsePath("width")); widthVal.Exists() {
		w, err := widthVal.Int64()
		if err != nil {
			return d, formatCUEError(err)
		}
		width := int(w)
		d.Width = &width
	}

	if baseVal := v.LookupPath(cue.ParsePath("base")); baseVal.Exists() {
		b, err := baseVal.Int64()
		if err != nil {
			return d, formatCUEError(err)
		}
		d.Base = &b
	}

	if err := d.Scale().Validate(); err != nil {
		return d, &CompileError{
			Field:   "scale",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}

	return d, nil
}

// CompileError is a model compilation error with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
