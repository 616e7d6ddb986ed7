package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fixedfield/internal/fixedpoint"
	"github.com/roach88/fixedfield/internal/schema"
	"github.com/roach88/fixedfield/internal/store"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh store with deterministic record IDs.
type Harness struct {
	store     *store.Store
	catalog   *schema.Catalog
	records   map[string]*store.Record
	accessors map[string]*fixedpoint.Accessor
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Logs are discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a test scenario, logging each step to logger.
//
// Execution flow:
// 1. Load the scenario's schema into a catalog
// 2. Create a fresh in-memory store whose record IDs are the setup names
// 3. Create setup records
// 4. Run steps, checking expected results and error codes
// 5. Evaluate assertions against the trace and the store
//
// A returned error means the scenario could not run. Failed expectations
// are reported in Result.Errors.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	catalog, err := loadCatalog(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	ids := make([]string, len(scenario.Setup))
	for i, r := range scenario.Setup {
		ids[i] = r.Record
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator(ids...)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		catalog:   catalog,
		records:   make(map[string]*store.Record, len(scenario.Setup)),
		accessors: make(map[string]*fixedpoint.Accessor, len(scenario.Setup)),
		logger:    logger,
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(ctx, result, scenario.Assertions, st) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", len(scenario.Steps),
	)

	return result, nil
}

func loadCatalog(scenario *Scenario) (*schema.Catalog, error) {
	if scenario.SchemaSource != "" {
		return schema.LoadSource(scenario.SchemaSource)
	}
	return schema.Load(scenario.Schema)
}

// executeSetup creates every setup record and binds an accessor to it.
func (h *Harness) executeSetup(ctx context.Context, setup []RecordStep, result *Result) error {
	for i, step := range setup {
		reg, ok := h.catalog.Registry(step.Model)
		if !ok {
			return fmt.Errorf("setup[%d]: model %q is not declared", i, step.Model)
		}

		id, err := h.store.CreateRecord(ctx, step.Model)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}

		rec, err := h.store.Record(ctx, id)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}

		h.records[step.Record] = rec
		h.accessors[step.Record] = fixedpoint.NewAccessor(reg, rec)

		result.AddEvent(TraceEvent{
			Type:   EventCreate,
			Record: id,
			Model:  step.Model,
		})

		h.logger.Debug("setup record created", "step", i, "record", id, "model", step.Model)
	}
	return nil
}

// executeSteps runs every step and checks it against its expectations.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		acc, ok := h.accessors[step.Record]
		if !ok {
			return fmt.Errorf("steps[%d]: record %q is not created in setup", i, step.Record)
		}
		event := TraceEvent{Record: step.Record, Op: step.Op}

		var stepErr error
		if step.IsSetter() {
			event.Type = EventSet
			event.Value = step.Value
			stepErr = acc.Set(ctx, step.Op, *step.Value)

			raw, err := h.storedRaw(ctx, step)
			if err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			event.Raw = raw
		} else {
			event.Type = EventGet
			v, err := acc.Get(ctx, step.Op)
			stepErr = err
			if err == nil {
				event.Result = v.String()
			}
		}

		code, err := errorCode(stepErr)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		event.Error = code

		result.AddEvent(event)
		checkStep(i, step, event, result)

		h.logger.Debug("step executed",
			"step", i,
			"record", step.Record,
			"op", step.Op,
			"result", event.Result,
			"error", event.Error,
		)
	}
	return nil
}

// storedRaw reads the stored attribute behind a setter step. It returns nil
// when the operation does not resolve or the attribute is absent.
func (h *Harness) storedRaw(ctx context.Context, step Step) (*int64, error) {
	_, b, err := h.accessors[step.Record].Registry().Resolve(step.Op)
	if err != nil {
		return nil, nil
	}

	raw, ok, err := h.records[step.Record].ReadRaw(ctx, b.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &raw, nil
}

// errorCode maps an accessor error to its code. Errors that carry no code
// come from the store and abort the run.
func errorCode(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	var fpErr *fixedpoint.Error
	if errors.As(err, &fpErr) {
		return string(fpErr.Code), nil
	}
	return "", err
}

func checkStep(index int, step Step, event TraceEvent, result *Result) {
	prefix := fmt.Sprintf("steps[%d] %s %s", index, step.Record, step.Op)

	switch {
	case step.Error != "" && event.Error != step.Error:
		actual := event.Error
		if actual == "" {
			actual = "no error"
		}
		result.AddError(fmt.Sprintf("%s: expected error %s, got %s", prefix, step.Error, actual))
		return
	case step.Error == "" && event.Error != "":
		result.AddError(fmt.Sprintf("%s: unexpected error %s", prefix, event.Error))
		return
	case step.Error != "":
		return
	}

	if step.Expect != nil && event.Result != *step.Expect {
		result.AddError(fmt.Sprintf("%s: expected %s, got %s", prefix, *step.Expect, event.Result))
	}
	if step.Absent && event.Result != "nil" {
		result.AddError(fmt.Sprintf("%s: expected absent, got %s", prefix, event.Result))
	}
}
