package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/fixedfield/internal/fixedpoint"
	"github.com/roach88/fixedfield/internal/schema"
	"github.com/roach88/fixedfield/internal/store"
)

// RecordOptions holds flags shared by the record commands.
type RecordOptions struct {
	*RootOptions
	Database string
	Schema   string
}

// CreateResult is the JSON payload of create.
type CreateResult struct {
	ID    string `json:"id"`
	Model string `json:"model"`
}

// GetResult is the JSON payload of get.
type GetResult struct {
	Record  string `json:"record"`
	Op      string `json:"op"`
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// SetResult is the JSON payload of set.
type SetResult struct {
	Record string `json:"record"`
	Op     string `json:"op"`
	Input  string `json:"input"`
	Raw    *int64 `json:"raw"`
}

// ListedRecord is one record in the JSON payload of list.
type ListedRecord struct {
	ID     string        `json:"id"`
	Seq    int64         `json:"seq"`
	Fields []ListedField `json:"fields"`
}

// ListedField is one stored attribute of a listed record.
type ListedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Raw   *int64 `json:"raw"`
}

func addRecordFlags(cmd *cobra.Command, opts *RecordOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "directory of CUE model declarations (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("schema")
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <model>",
		Short: "Create a record of a declared model",
		Long: `Create an empty record of a model declared in the schema directory.
The database is created if it does not exist. Prints the new record ID.

Example:
  fixedfield create --db ./fields.db --schema ./schema Invoice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}
	addRecordFlags(cmd, opts)

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <record-id> <op>",
		Short: "Run a getter on a record",
		Long: `Run a getter on a record. "<field>" returns the decimal value,
"<field>_fixed" the stored integer. Absent values print as nil.

Example:
  fixedfield get --db ./fields.db --schema ./schema <id> total`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}
	addRecordFlags(cmd, opts)

	return cmd
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <record-id> <op> <value>",
		Short: "Run a setter on a record",
		Long: `Run a setter on a record. "<field>=" scales a decimal value,
"<field>_fixed=" stores an integer as is. An empty decimal value leaves the
field unchanged.

Example:
  fixedfield set --db ./fields.db --schema ./schema <id> total= 10.3`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], args[1], args[2], cmd)
		},
	}
	addRecordFlags(cmd, opts)

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <model>",
		Short: "List the records of a model with their fields",
		Long: `List every record of a model in creation order with the decimal and
stored value of each fixed-point field.

Example:
  fixedfield list --db ./fields.db --schema ./schema Invoice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}
	addRecordFlags(cmd, opts)

	return cmd
}

// openSession loads the schema and opens the database.
func openSession(opts *RecordOptions, formatter *OutputFormatter) (*schema.Catalog, *store.Store, error) {
	catalog, err := loadCatalog(formatter, opts.Schema)
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, schema.ErrCodeGeneric,
			fmt.Sprintf("failed to open database: %v", err), nil)
	}
	return catalog, st, nil
}

// openAccessor binds an accessor to an existing record.
func openAccessor(ctx context.Context, catalog *schema.Catalog, st *store.Store, id string, formatter *OutputFormatter) (*fixedpoint.Accessor, *store.Record, error) {
	rec, err := st.Record(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil, formatter.Fail(ExitCommandError, schema.ErrCodeNotFound,
			fmt.Sprintf("record %s not found", id), nil)
	}
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}

	reg, ok := catalog.Registry(rec.Model())
	if !ok {
		return nil, nil, formatter.Fail(ExitCommandError, schema.ErrCodeNotFound,
			fmt.Sprintf("model %q of record %s is not declared", rec.Model(), id), nil)
	}
	return fixedpoint.NewAccessor(reg, rec), rec, nil
}

func runCreate(opts *RecordOptions, model string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, st, err := openSession(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, ok := catalog.Registry(model); !ok {
		return formatter.Fail(ExitCommandError, schema.ErrCodeNotFound,
			fmt.Sprintf("model %q is not declared in %s", model, opts.Schema), nil)
	}

	id, err := st.CreateRecord(ctx, model)
	if err != nil {
		return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}
	slog.Info("record created", "id", id, "model", model)

	if formatter.Format == "json" {
		return formatter.Success(CreateResult{ID: id, Model: model})
	}
	return formatter.Success(id)
}

func runGet(opts *RecordOptions, id, op string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, st, err := openSession(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	acc, _, err := openAccessor(ctx, catalog, st, id, formatter)
	if err != nil {
		return err
	}

	v, err := acc.Get(ctx, op)
	if err != nil {
		return operationFailure(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(GetResult{Record: id, Op: op, Value: v.String(), Present: v.Present})
	}
	return formatter.Success(v.String())
}

func runSet(opts *RecordOptions, id, op, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, st, err := openSession(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	acc, rec, err := openAccessor(ctx, catalog, st, id, formatter)
	if err != nil {
		return err
	}

	operation, _, err := acc.Registry().Resolve(op)
	if err != nil {
		return operationFailure(formatter, err)
	}
	if !operation.Kind.IsSetter() {
		return formatter.Fail(ExitCommandError, string(fixedpoint.ErrCodeInvalidField),
			fmt.Sprintf("%s is a getter (did you mean %s=?)", op, op), nil)
	}

	if err := acc.Set(ctx, op, input); err != nil {
		return operationFailure(formatter, err)
	}

	raw, ok, err := rec.ReadRaw(ctx, operation.Field)
	if err != nil {
		return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}
	slog.Debug("attribute written", "record", id, "field", operation.Field, "raw", raw, "present", ok)

	result := SetResult{Record: id, Op: op, Input: input}
	text := "nil"
	if ok {
		result.Raw = &raw
		text = strconv.FormatInt(raw, 10)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("%s.%s = %s", id, operation.Field, text))
}

func runList(opts *RecordOptions, model string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, st, err := openSession(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	reg, ok := catalog.Registry(model)
	if !ok {
		return formatter.Fail(ExitCommandError, schema.ErrCodeNotFound,
			fmt.Sprintf("model %q is not declared in %s", model, opts.Schema), nil)
	}

	infos, err := st.ListRecords(ctx, model)
	if err != nil {
		return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}

	listed := make([]ListedRecord, 0, len(infos))
	for _, info := range infos {
		rec, err := st.Record(ctx, info.ID)
		if err != nil {
			return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
		}
		acc := fixedpoint.NewAccessor(reg, rec)

		lr := ListedRecord{ID: info.ID, Seq: info.Seq, Fields: []ListedField{}}
		for _, b := range reg.Bindings() {
			v, err := acc.Get(ctx, b.Name)
			if err != nil {
				return operationFailure(formatter, err)
			}
			f := ListedField{Name: b.Name, Value: v.String()}
			if v.Present {
				raw := v.Raw
				f.Raw = &raw
			}
			lr.Fields = append(lr.Fields, f)
		}
		listed = append(listed, lr)
	}

	if formatter.Format == "json" {
		return formatter.Success(listed)
	}

	w := formatter.Writer
	if len(listed) == 0 {
		fmt.Fprintf(w, "No %s records.\n", model)
		return nil
	}
	for _, lr := range listed {
		fmt.Fprintf(w, "%s (seq %d)\n", lr.ID, lr.Seq)
		for _, f := range lr.Fields {
			if f.Raw == nil {
				fmt.Fprintf(w, "  %s = nil\n", f.Name)
				continue
			}
			fmt.Fprintf(w, "  %s = %s (%d)\n", f.Name, f.Value, *f.Raw)
		}
	}
	return nil
}
