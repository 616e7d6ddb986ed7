package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fixedfield/internal/fixedpoint"
	"github.com/roach88/fixedfield/internal/schema"
)

// ModelDescription lists the fixed-point fields of one model.
type ModelDescription struct {
	Name   string             `json:"name"`
	Fields []FieldDescription `json:"fields"`
}

// FieldDescription is one binding with its generated operation names.
type FieldDescription struct {
	Name       string   `json:"name"`
	Width      int      `json:"width"`
	Base       int64    `json:"base"`
	Factor     int64    `json:"factor"`
	Operations []string `json:"operations"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <schema-dir> [model]",
		Short: "List fixed-point fields and their operations",
		Long: `List the models in a schema directory with each fixed-point field,
its scale and the four operations generated for it.

Examples:
  fixedfield describe ./schema
  fixedfield describe ./schema Invoice --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if len(args) == 2 {
				model = args[1]
			}
			return runDescribe(rootOpts, args[0], model, cmd)
		},
	}

	return cmd
}

func runDescribe(opts *RootOptions, schemaDir, model string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	catalog, err := loadCatalog(formatter, schemaDir)
	if err != nil {
		return err
	}

	models := catalog.Models()
	if model != "" {
		if _, ok := catalog.Registry(model); !ok {
			return formatter.Fail(ExitCommandError, schema.ErrCodeNotFound,
				fmt.Sprintf("model %q is not declared in %s", model, schemaDir), nil)
		}
		models = []string{model}
	}

	descriptions := make([]ModelDescription, 0, len(models))
	for _, name := range models {
		reg, _ := catalog.Registry(name)
		descriptions = append(descriptions, describeRegistry(reg))
	}

	if formatter.Format == "json" {
		return formatter.Success(descriptions)
	}

	w := formatter.Writer
	for _, d := range descriptions {
		fmt.Fprintln(w, d.Name)
		for _, f := range d.Fields {
			fmt.Fprintf(w, "  %-16s width=%d base=%d factor=%d\n", f.Name, f.Width, f.Base, f.Factor)
			fmt.Fprintf(w, "  %-16s %s\n", "", strings.Join(f.Operations, " "))
		}
	}
	return nil
}

func describeRegistry(reg *fixedpoint.Registry) ModelDescription {
	d := ModelDescription{Name: reg.Model(), Fields: []FieldDescription{}}
	for _, b := range reg.Bindings() {
		ops := b.Operations()
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = op.Name
		}
		d.Fields = append(d.Fields, FieldDescription{
			Name:       b.Name,
			Width:      b.Scale.Width,
			Base:       b.Scale.Base,
			Factor:     b.Scale.Factor(),
			Operations: names,
		})
	}
	return d
}

// loadCatalog loads a schema directory, reporting load errors through the
// formatter as command errors.
func loadCatalog(formatter *OutputFormatter, schemaDir string) (*schema.Catalog, error) {
	result, errs := schema.LoadDir(schemaDir, schema.LoadModeFailFast)
	if len(errs) > 0 {
		var loadErr *schema.LoadError
		if errors.As(errs[0], &loadErr) {
			return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Error(), nil)
		}
		return nil, formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, errs[0].Error(), nil)
	}
	formatter.VerboseLog("Loaded %d model(s) from %d CUE file(s) in %s", len(result.Models), result.FileCount, schemaDir)

	catalog, err := schema.NewCatalog(result.Models)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, schema.ErrCodeCatalog, err.Error(), nil)
	}
	return catalog, nil
}
