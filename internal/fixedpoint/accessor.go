package fixedpoint

import (
	"context"
	"strconv"
	"strings"
)

// Attributes is the record storage the accessors delegate to.
//
// ReadRaw reports ok == false when no value is recorded for the field.
type Attributes interface {
	ReadRaw(ctx context.Context, field string) (raw int64, ok bool, err error)
	WriteRaw(ctx context.Context, field string, raw int64) error
}

// MapAttributes is an in-memory Attributes keyed by field name.
// It is not safe for concurrent writes.
type MapAttributes map[string]int64

// ReadRaw implements Attributes.
func (m MapAttributes) ReadRaw(_ context.Context, field string) (int64, bool, error) {
	raw, ok := m[field]
	return raw, ok, nil
}

// WriteRaw implements Attributes.
func (m MapAttributes) WriteRaw(_ context.Context, field string, raw int64) error {
	m[field] = raw
	return nil
}

// Accessor exposes the registered fields of one record.
type Accessor struct {
	registry *Registry
	attrs    Attributes
}

// NewAccessor binds a registry to the attributes of a single record.
func NewAccessor(registry *Registry, attrs Attributes) *Accessor {
	return &Accessor{
		registry: registry,
		attrs:    attrs,
	}
}

// Registry returns the registry the accessor reads bindings from.
func (a *Accessor) Registry() *Registry {
	return a.registry
}

func (a *Accessor) binding(field string) (FieldBinding, error) {
	b, ok := a.registry.Binding(field)
	if !ok {
		return FieldBinding{}, newMissingFieldError(field)
	}
	return b, nil
}

// Float is the float getter. ok is false when no raw value is recorded.
func (a *Accessor) Float(ctx context.Context, field string) (value float64, ok bool, err error) {
	b, err := a.binding(field)
	if err != nil {
		return 0, false, err
	}

	raw, ok, err := a.attrs.ReadRaw(ctx, b.Name)
	if err != nil {
		return 0, false, err
	}

	value, ok = FromStored(raw, ok, b.Scale)
	return value, ok, nil
}

// SetFloat is the float setter. The value is scaled and validated before
// anything is written.
func (a *Accessor) SetFloat(ctx context.Context, field string, value float64) error {
	b, err := a.binding(field)
	if err != nil {
		return err
	}

	raw, err := toStored(b.Name, value, b.Scale)
	if err != nil {
		return err
	}

	return a.attrs.WriteRaw(ctx, b.Name, raw)
}

// Assign is the float setter for text input such as form values.
// An empty string leaves the record untouched.
func (a *Accessor) Assign(ctx context.Context, field string, input string) error {
	b, err := a.binding(field)
	if err != nil {
		return err
	}

	if input == "" {
		return nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return newValueError(b.Name, "cannot parse %q as a number", input)
	}

	return a.SetFloat(ctx, b.Name, value)
}

// Fixed is the raw getter. It returns the stored integer unchanged.
func (a *Accessor) Fixed(ctx context.Context, field string) (raw int64, ok bool, err error) {
	b, err := a.binding(field)
	if err != nil {
		return 0, false, err
	}
	return a.attrs.ReadRaw(ctx, b.Name)
}

// SetFixed is the raw setter. It writes raw unchanged.
func (a *Accessor) SetFixed(ctx context.Context, field string, raw int64) error {
	b, err := a.binding(field)
	if err != nil {
		return err
	}
	return a.attrs.WriteRaw(ctx, b.Name, raw)
}

// Value is the result of a getter operation.
type Value struct {
	Operation Operation
	Raw       int64
	Float     float64
	Present   bool
}

// String formats the value the way the getter returned it.
// Absent values print as "nil".
func (v Value) String() string {
	if !v.Present {
		return "nil"
	}
	if v.Operation.Kind.IsFixed() {
		return strconv.FormatInt(v.Raw, 10)
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// Get runs the getter named op ("price" or "price_fixed").
func (a *Accessor) Get(ctx context.Context, op string) (Value, error) {
	operation, b, err := a.registry.Resolve(op)
	if err != nil {
		return Value{}, err
	}

	v := Value{Operation: operation}
	switch operation.Kind {
	case FloatGetter:
		v.Raw, v.Present, err = a.attrs.ReadRaw(ctx, b.Name)
		if err != nil {
			return Value{}, err
		}
		v.Float, v.Present = FromStored(v.Raw, v.Present, b.Scale)
	case FixedGetter:
		v.Raw, v.Present, err = a.attrs.ReadRaw(ctx, b.Name)
		if err != nil {
			return Value{}, err
		}
		v.Float, _ = FromStored(v.Raw, v.Present, b.Scale)
	default:
		return Value{}, newFieldError(op, "operation is a setter")
	}

	return v, nil
}

// Set runs the setter named op with a text input. The trailing "=" is
// optional: "price" and "price=" both name the float setter.
//
// The float setter treats an empty input as no change. The raw setter
// requires an integer.
func (a *Accessor) Set(ctx context.Context, op string, input string) error {
	operation, b, err := a.registry.Resolve(op)
	if err != nil {
		return err
	}

	if !operation.Kind.IsFixed() {
		return a.Assign(ctx, b.Name, input)
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return newValueError(b.Name, "cannot parse %q as an integer", input)
	}
	return a.attrs.WriteRaw(ctx, b.Name, raw)
}
