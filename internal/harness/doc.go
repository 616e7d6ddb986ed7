// Package harness runs conformance scenarios against fixed-point models.
//
// A scenario loads CUE model declarations, creates records in a fresh
// in-memory store and runs accessor operations on them. Each step is
// recorded in a trace that can be compared against a golden file.
//
// # Scenario Format
//
//	name: invoice_totals
//	description: "Totals are stored in cents"
//	schema: schema            # directory, relative to the scenario file
//	setup:
//	  - record: inv-1
//	    model: Invoice
//	steps:
//	  - record: inv-1
//	    op: "total="
//	    value: "10.3"
//	  - record: inv-1
//	    op: total_fixed
//	    expect: "1030"
//	  - record: inv-1
//	    op: tax
//	    absent: true
//	  - record: inv-1
//	    op: "total="
//	    value: "abc"
//	    error: INVALID_VALUE
//	assertions:
//	  - type: final_raw
//	    record: inv-1
//	    field: total
//	    raw: 1030
//
// schema_source may hold inline CUE instead of a schema directory.
//
// # Assertion Types
//
//   - trace_contains: Verifies an operation appears in the trace
//   - trace_order: Verifies operations first appear in the given order
//   - trace_count: Verifies an operation appears exactly N times
//   - final_raw: Reads the stored integer of a record field
//
// # Golden Files
//
// RunWithGolden compares the trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
