package fixedpoint

import (
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Operation name suffixes.
const (
	FixedSuffix  = "_fixed"
	SetterSuffix = "="
)

// FieldBinding ties a logical field name to its scale.
type FieldBinding struct {
	Name  string    `json:"name"`
	Scale ScaleSpec `json:"scale"`
}

// Operations returns the four named operations of the field, in the order
// float getter, float setter, raw getter, raw setter.
func (b FieldBinding) Operations() []Operation {
	return []Operation{
		{Name: b.Name, Field: b.Name, Kind: FloatGetter},
		{Name: b.Name + SetterSuffix, Field: b.Name, Kind: FloatSetter},
		{Name: b.Name + FixedSuffix, Field: b.Name, Kind: FixedGetter},
		{Name: b.Name + FixedSuffix + SetterSuffix, Field: b.Name, Kind: FixedSetter},
	}
}

// OperationKind selects one of the four generated operations.
type OperationKind int

const (
	FloatGetter OperationKind = iota
	FloatSetter
	FixedGetter
	FixedSetter
)

// String returns a short label for the kind.
func (k OperationKind) String() string {
	switch k {
	case FloatGetter:
		return "float getter"
	case FloatSetter:
		return "float setter"
	case FixedGetter:
		return "raw getter"
	case FixedSetter:
		return "raw setter"
	default:
		return "unknown"
	}
}

// IsSetter reports whether the kind writes to the record.
func (k OperationKind) IsSetter() bool {
	return k == FloatSetter || k == FixedSetter
}

// IsFixed reports whether the kind works on the raw stored integer.
func (k OperationKind) IsFixed() bool {
	return k == FixedGetter || k == FixedSetter
}

// Operation is one named accessor generated for a registered field.
type Operation struct {
	Name  string        `json:"name"`
	Field string        `json:"field"`
	Kind  OperationKind `json:"kind"`
}

// Option configures a RegisterFields call.
type Option func(*registration)

type registration struct {
	width int
	base  int64
}

// WithWidth sets the number of fractional digits (default 2).
func WithWidth(width int) Option {
	return func(r *registration) {
		r.width = width
	}
}

// WithBase sets the number base (default 10).
func WithBase(base int64) Option {
	return func(r *registration) {
		r.base = base
	}
}

// Registry holds the fixed point field bindings of one model type.
//
// Registration is expected to happen while the model is being defined.
// Registry is not safe for concurrent registration; lookups after setup are
// read-only and may run concurrently.
type Registry struct {
	model    string
	bindings map[string]FieldBinding
}

// NewRegistry creates an empty registry for the named model.
func NewRegistry(model string) *Registry {
	return &Registry{
		model:    model,
		bindings: make(map[string]FieldBinding),
	}
}

// Model returns the model name the registry was created for.
func (r *Registry) Model() string {
	return r.model
}

// RegisterFields binds every name in fields to the scale built from opts.
//
// The scale and all names are validated first; on error the registry is left
// unchanged. Registering a name again replaces its scale. Names are NFC
// normalized so that equivalent spellings share one binding.
func (r *Registry) RegisterFields(fields []string, opts ...Option) error {
	reg := registration{width: DefaultWidth, base: DefaultBase}
	for _, opt := range opts {
		opt(&reg)
	}

	scale := ScaleSpec{Width: reg.width, Base: reg.base}
	if err := scale.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	for _, field := range fields {
		name := normalizeName(field)
		if err := validateName(name); err != nil {
			return err
		}
		names = append(names, name)
	}

	for _, name := range names {
		_, replaced := r.bindings[name]
		r.bindings[name] = FieldBinding{Name: name, Scale: scale}
		slog.Debug("registered fixed point field",
			"model", r.model,
			"field", name,
			"width", scale.Width,
			"base", scale.Base,
			"replaced", replaced,
		)
	}

	return nil
}

// Binding returns the binding registered for field.
func (r *Registry) Binding(field string) (FieldBinding, bool) {
	b, ok := r.bindings[normalizeName(field)]
	return b, ok
}

// Bindings returns all bindings sorted by field name.
func (r *Registry) Bindings() []FieldBinding {
	out := make([]FieldBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b FieldBinding) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.bindings)
}

// Operations returns the named operations of every binding, grouped by
// field in name order.
func (r *Registry) Operations() []Operation {
	var ops []Operation
	for _, b := range r.Bindings() {
		ops = append(ops, b.Operations()...)
	}
	return ops
}

// Resolve maps an operation name ("price", "price=", "price_fixed",
// "price_fixed=") to its operation and binding.
//
// A registered field whose own name ends in "_fixed" takes precedence over
// the raw getter of the shorter field.
func (r *Registry) Resolve(op string) (Operation, FieldBinding, error) {
	name := normalizeName(op)
	setter := strings.HasSuffix(name, SetterSuffix)
	name = strings.TrimSuffix(name, SetterSuffix)
	if name == "" {
		return Operation{}, FieldBinding{}, newFieldError(op, "operation name is empty")
	}

	if b, ok := r.bindings[name]; ok {
		kind := FloatGetter
		if setter {
			kind = FloatSetter
		}
		return Operation{Name: normalizeName(op), Field: b.Name, Kind: kind}, b, nil
	}

	if field, ok := strings.CutSuffix(name, FixedSuffix); ok {
		if b, ok := r.bindings[field]; ok {
			kind := FixedGetter
			if setter {
				kind = FixedSetter
			}
			return Operation{Name: normalizeName(op), Field: b.Name, Kind: kind}, b, nil
		}
	}

	return Operation{}, FieldBinding{}, newMissingFieldError(name)
}

func normalizeName(name string) string {
	return norm.NFC.String(name)
}

func validateName(name string) error {
	if name == "" {
		return newFieldError(name, "field name is empty")
	}
	if strings.ContainsAny(name, SetterSuffix+" \t\n") {
		return newFieldError(name, "field name must not contain '=' or whitespace")
	}
	return nil
}
