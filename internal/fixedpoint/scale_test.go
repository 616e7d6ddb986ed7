package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		name  string
		scale ScaleSpec
		want  int64
	}{
		{"default", DefaultScale(), 100},
		{"width one", ScaleSpec{Width: 1, Base: 10}, 10},
		{"width zero", ScaleSpec{Width: 0, Base: 10}, 1},
		{"base twenty", ScaleSpec{Width: 2, Base: 20}, 400},
		{"binary", ScaleSpec{Width: 8, Base: 2}, 256},
		{"largest decimal", ScaleSpec{Width: 18, Base: 10}, 1_000_000_000_000_000_000},
		{"invalid base", ScaleSpec{Width: 2, Base: 1}, 0},
		{"negative width", ScaleSpec{Width: -1, Base: 10}, 0},
		{"overflow", ScaleSpec{Width: 19, Base: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scale.Factor())
		})
	}
}

func TestScaleValidate(t *testing.T) {
	require.NoError(t, DefaultScale().Validate())
	require.NoError(t, ScaleSpec{Width: 0, Base: 2}.Validate())
	require.NoError(t, ScaleSpec{Width: 18, Base: 10}.Validate())

	for _, s := range []ScaleSpec{
		{Width: 2, Base: 1},
		{Width: 2, Base: 0},
		{Width: 2, Base: -10},
		{Width: -1, Base: 10},
		{Width: 19, Base: 10},
		{Width: 64, Base: 2},
	} {
		err := s.Validate()
		require.Error(t, err, s.String())
		assert.True(t, IsInvalidScale(err), "expected INVALID_SCALE for %s, got %v", s, err)
	}
}

func TestNewScale(t *testing.T) {
	s, err := NewScale(3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s.Factor())

	_, err = NewScale(2, 1)
	assert.True(t, IsInvalidScale(err))
}

func TestToStoredExamples(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		scale ScaleSpec
		want  int64
	}{
		{"default scale", 10.3, DefaultScale(), 1030},
		{"width one", 10.3, ScaleSpec{Width: 1, Base: 10}, 103},
		{"base twenty", 10.3, ScaleSpec{Width: 2, Base: 20}, 4120},
		{"thirteen ten", 13.10, DefaultScale(), 1310},
		{"negative", -10.3, DefaultScale(), -1030},
		{"zero", 0, DefaultScale(), 0},
		{"excess precision", 3.14159, DefaultScale(), 314},
		{"width zero", 42.4, ScaleSpec{Width: 0, Base: 10}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToStored(tt.value, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToStoredRoundsHalfAwayFromZero(t *testing.T) {
	whole := ScaleSpec{Width: 0, Base: 10}

	tests := []struct {
		value float64
		scale ScaleSpec
		want  int64
	}{
		{0.5, whole, 1},
		{1.5, whole, 2},
		{2.5, whole, 3},
		{-0.5, whole, -1},
		{-2.5, whole, -3},
		{0.125, DefaultScale(), 13},
		{-0.125, DefaultScale(), -13},
		{0.375, DefaultScale(), 38},
	}

	for _, tt := range tests {
		got, err := ToStored(tt.value, tt.scale)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ToStored(%v, %s)", tt.value, tt.scale)
	}
}

func TestToStoredRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ToStored(v, DefaultScale())
		require.Error(t, err)
		assert.True(t, IsInvalidValue(err), "value %v: %v", v, err)
	}
}

func TestToStoredRejectsOverflow(t *testing.T) {
	_, err := ToStored(1e17, DefaultScale())
	require.Error(t, err)
	assert.True(t, IsInvalidValue(err))

	_, err = ToStored(-1e17, DefaultScale())
	require.Error(t, err)
	assert.True(t, IsInvalidValue(err))

	got, err := ToStored(1e15, DefaultScale())
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000_000_000_000), got)
}

func TestToStoredRejectsInvalidScale(t *testing.T) {
	_, err := ToStored(1, ScaleSpec{Width: 2, Base: 1})
	require.Error(t, err)
	assert.True(t, IsInvalidScale(err))
}

func TestFromStoredExamples(t *testing.T) {
	v, ok := FromStored(103, true, DefaultScale())
	require.True(t, ok)
	assert.Equal(t, 1.03, v)

	v, ok = FromStored(4120, true, ScaleSpec{Width: 2, Base: 20})
	require.True(t, ok)
	assert.Equal(t, 10.3, v)

	v, ok = FromStored(1310, true, DefaultScale())
	require.True(t, ok)
	assert.Equal(t, 13.1, v)

	v, ok = FromStored(-250, true, DefaultScale())
	require.True(t, ok)
	assert.Equal(t, -2.5, v)
}

func TestFromStoredAbsent(t *testing.T) {
	v, ok := FromStored(0, false, DefaultScale())
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestRoundTripIsBoundedByWidth(t *testing.T) {
	scales := []ScaleSpec{
		DefaultScale(),
		{Width: 1, Base: 10},
		{Width: 4, Base: 10},
		{Width: 2, Base: 20},
		{Width: 8, Base: 2},
	}
	values := []float64{0, 10.3, -10.3, 1.005, 3.14159, 99.999, 123456.789, -0.001}

	for _, s := range scales {
		factor := float64(s.Factor())
		for _, v := range values {
			raw, err := ToStored(v, s)
			require.NoError(t, err)

			got, ok := FromStored(raw, true, s)
			require.True(t, ok)
			assert.Equal(t, math.Round(v*factor)/factor, got, "value %v at %s", v, s)
		}
	}
}

func TestRawRoundTripIsExact(t *testing.T) {
	scales := []ScaleSpec{
		DefaultScale(),
		{Width: 1, Base: 10},
		{Width: 2, Base: 20},
		{Width: 6, Base: 10},
		{Width: 0, Base: 10},
	}
	raws := []int64{0, 1, -1, 103, 1030, 4120, -999_999, 123_456_789_012, 1 << 40, -(1 << 40)}

	for _, s := range scales {
		for _, r := range raws {
			v, ok := FromStored(r, true, s)
			require.True(t, ok)

			got, err := ToStored(v, s)
			require.NoError(t, err)
			assert.Equal(t, r, got, "raw %d at %s", r, s)
		}
	}
}
