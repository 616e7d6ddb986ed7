package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixedfield/internal/store"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Type: EventCreate, Record: "inv-1", Model: "Invoice"},
		{Seq: 2, Type: EventSet, Record: "inv-1", Op: "total=", Value: strPtr("10.3")},
		{Seq: 3, Type: EventGet, Record: "inv-1", Op: "total", Result: "10.3"},
		{Seq: 4, Type: EventSet, Record: "inv-1", Op: "tax=", Value: strPtr("0.5")},
		{Seq: 5, Type: EventSet, Record: "inv-1", Op: "total=", Value: strPtr("1")},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: "total"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: "total", Record: "inv-1"}))

	err := assertTraceContains(trace, Assertion{Op: "total", Record: "inv-2"})
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "op total on record inv-2", ae.Expected)
	assert.Contains(t, ae.Error(), "[1] create Invoice inv-1")
	assert.Contains(t, ae.Error(), "[3] inv-1 total")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{"total=", "total", "tax="}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{"tax=", "total="}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tax= (pos 4) should be before total= (pos 2)")

	err = assertTraceOrder(trace, Assertion{Ops: []string{"rate="}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: rate=")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "total=", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "rate=", Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: "total=", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertFinalRaw(t *testing.T) {
	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator("inv-1")))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	_, err = st.CreateRecord(ctx, "Invoice")
	require.NoError(t, err)
	rec, err := st.Record(ctx, "inv-1")
	require.NoError(t, err)
	require.NoError(t, rec.WriteRaw(ctx, "total", 1030))

	assert.NoError(t, assertFinalRaw(ctx, st, Assertion{Record: "inv-1", Field: "total", Raw: int64Ptr(1030)}))
	assert.NoError(t, assertFinalRaw(ctx, st, Assertion{Record: "inv-1", Field: "tax"}))

	err = assertFinalRaw(ctx, st, Assertion{Record: "inv-1", Field: "total", Raw: int64Ptr(103)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inv-1.total = 103")

	err = assertFinalRaw(ctx, st, Assertion{Record: "inv-1", Field: "tax", Raw: int64Ptr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: nil")

	err = assertFinalRaw(ctx, st, Assertion{Record: "inv-9", Field: "total"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	failures := EvaluateAssertions(context.Background(), result, []Assertion{
		{Type: AssertTraceCount, Op: "total=", Count: 2},
		{Type: AssertTraceContains, Op: "rate="},
		{Type: "bogus"},
	}, nil)

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], `unknown assertion type "bogus"`)
}
