package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFieldsDefaults(t *testing.T) {
	r := NewRegistry("Invoice")
	require.NoError(t, r.RegisterFields([]string{"total"}))

	b, ok := r.Binding("total")
	require.True(t, ok)
	assert.Equal(t, "total", b.Name)
	assert.Equal(t, ScaleSpec{Width: 2, Base: 10}, b.Scale)
	assert.Equal(t, "Invoice", r.Model())
}

func TestRegisterFieldsOptions(t *testing.T) {
	r := NewRegistry("Rate")
	require.NoError(t, r.RegisterFields([]string{"a", "b"}, WithWidth(1)))
	require.NoError(t, r.RegisterFields([]string{"c"}, WithBase(20)))
	require.NoError(t, r.RegisterFields([]string{"d"}, WithWidth(0), WithBase(2)))

	a, _ := r.Binding("a")
	b, _ := r.Binding("b")
	c, _ := r.Binding("c")
	d, _ := r.Binding("d")

	assert.Equal(t, ScaleSpec{Width: 1, Base: 10}, a.Scale)
	assert.Equal(t, ScaleSpec{Width: 1, Base: 10}, b.Scale)
	assert.Equal(t, ScaleSpec{Width: 2, Base: 20}, c.Scale)
	assert.Equal(t, ScaleSpec{Width: 0, Base: 2}, d.Scale)
	assert.Equal(t, 4, r.Len())
}

func TestRegisterFieldsAccumulates(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"price"}))
	require.NoError(t, r.RegisterFields([]string{"weight"}, WithWidth(3)))

	names := make([]string, 0)
	for _, b := range r.Bindings() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"price", "weight"}, names)
}

func TestRegisterFieldsOverwrites(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"a", "b"}))
	require.NoError(t, r.RegisterFields([]string{"a"}, WithWidth(1)))

	a, _ := r.Binding("a")
	b, _ := r.Binding("b")
	assert.Equal(t, ScaleSpec{Width: 1, Base: 10}, a.Scale)
	assert.Equal(t, DefaultScale(), b.Scale)
	assert.Equal(t, 2, r.Len())
}

func TestRegisterFieldsInvalidScaleLeavesRegistryUnchanged(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"a"}))

	err := r.RegisterFields([]string{"a", "b"}, WithBase(1))
	require.Error(t, err)
	assert.True(t, IsInvalidScale(err))

	a, _ := r.Binding("a")
	assert.Equal(t, DefaultScale(), a.Scale)
	_, ok := r.Binding("b")
	assert.False(t, ok)

	err = r.RegisterFields([]string{"c"}, WithWidth(-2))
	assert.True(t, IsInvalidScale(err))
	assert.Equal(t, 1, r.Len())
}

func TestRegisterFieldsInvalidName(t *testing.T) {
	r := NewRegistry("Item")

	for _, name := range []string{"", "price=", "unit price"} {
		err := r.RegisterFields([]string{"ok", name})
		require.Error(t, err, "name %q", name)
		assert.True(t, IsInvalidField(err), "name %q: %v", name, err)
	}
	assert.Zero(t, r.Len())
}

func TestRegisterFieldsNormalizesNames(t *testing.T) {
	r := NewRegistry("Menu")
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	require.NoError(t, r.RegisterFields([]string{decomposed}))

	b, ok := r.Binding(composed)
	require.True(t, ok)
	assert.Equal(t, composed, b.Name)
	assert.Equal(t, 1, r.Len())
}

func TestBindingOperations(t *testing.T) {
	b := FieldBinding{Name: "price", Scale: DefaultScale()}

	ops := b.Operations()
	require.Len(t, ops, 4)

	assert.Equal(t, Operation{Name: "price", Field: "price", Kind: FloatGetter}, ops[0])
	assert.Equal(t, Operation{Name: "price=", Field: "price", Kind: FloatSetter}, ops[1])
	assert.Equal(t, Operation{Name: "price_fixed", Field: "price", Kind: FixedGetter}, ops[2])
	assert.Equal(t, Operation{Name: "price_fixed=", Field: "price", Kind: FixedSetter}, ops[3])
}

func TestRegistryOperations(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"tax", "price"}))

	var names []string
	for _, op := range r.Operations() {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{
		"price", "price=", "price_fixed", "price_fixed=",
		"tax", "tax=", "tax_fixed", "tax_fixed=",
	}, names)
}

func TestResolve(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"price"}))

	tests := []struct {
		op   string
		kind OperationKind
	}{
		{"price", FloatGetter},
		{"price=", FloatSetter},
		{"price_fixed", FixedGetter},
		{"price_fixed=", FixedSetter},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			op, b, err := r.Resolve(tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, op.Kind)
			assert.Equal(t, tt.op, op.Name)
			assert.Equal(t, "price", op.Field)
			assert.Equal(t, "price", b.Name)
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"price"}))

	_, _, err := r.Resolve("cost")
	assert.True(t, IsMissingField(err))

	_, _, err = r.Resolve("cost_fixed")
	assert.True(t, IsMissingField(err))

	_, _, err = r.Resolve("=")
	assert.True(t, IsInvalidField(err))
}

func TestResolvePrefersExactFieldName(t *testing.T) {
	r := NewRegistry("Item")
	require.NoError(t, r.RegisterFields([]string{"rate", "rate_fixed"}))

	op, b, err := r.Resolve("rate_fixed")
	require.NoError(t, err)
	assert.Equal(t, FloatGetter, op.Kind)
	assert.Equal(t, "rate_fixed", b.Name)
}

func TestOperationKindString(t *testing.T) {
	assert.Equal(t, "float getter", FloatGetter.String())
	assert.Equal(t, "raw setter", FixedSetter.String())
	assert.True(t, FixedSetter.IsSetter())
	assert.True(t, FixedSetter.IsFixed())
	assert.False(t, FloatGetter.IsSetter())
	assert.False(t, FloatSetter.IsFixed())
}
