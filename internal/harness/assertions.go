package harness

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fixedfield/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Type == EventCreate {
				fmt.Fprintf(&buf, "  [%d] create %s %s\n", event.Seq, event.Model, event.Record)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Record, event.Op)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs all assertions and returns failure messages.
// An empty slice means every assertion passed.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st *store.Store) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalRaw:
			err = assertFinalRaw(ctx, st, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertTraceContains checks that the trace contains the operation,
// optionally on a specific record.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op != assertion.Op {
			continue
		}
		if assertion.Record == "" || assertion.Record == event.Record {
			return nil
		}
	}

	expected := "op " + assertion.Op
	if assertion.Record != "" {
		expected += " on record " + assertion.Record
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that operations first appear in the given order.
// Intervening operations are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Op == "" {
			continue
		}
		if _, seen := positions[event.Op]; !seen {
			positions[event.Op] = i + 1
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that the operation appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalRaw checks the stored integer of a record field.
func assertFinalRaw(ctx context.Context, st *store.Store, assertion Assertion) error {
	rec, err := st.Record(ctx, assertion.Record)
	if errors.Is(err, store.ErrRecordNotFound) {
		return &AssertionError{
			Type:     AssertFinalRaw,
			Expected: fmt.Sprintf("record %s", assertion.Record),
			Actual:   "record not found",
		}
	}
	if err != nil {
		return err
	}

	raw, ok, err := rec.ReadRaw(ctx, assertion.Field)
	if err != nil {
		return err
	}

	expected := "nil"
	if assertion.Raw != nil {
		expected = strconv.FormatInt(*assertion.Raw, 10)
	}
	actual := "nil"
	if ok {
		actual = strconv.FormatInt(raw, 10)
	}

	if expected != actual {
		return &AssertionError{
			Type:     AssertFinalRaw,
			Expected: fmt.Sprintf("%s.%s = %s", assertion.Record, assertion.Field, expected),
			Actual:   actual,
		}
	}
	return nil
}
