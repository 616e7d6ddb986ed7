package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/fixedfield/internal/fixedpoint"
	"github.com/roach88/fixedfield/internal/schema"
)

// ConvertOptions holds flags for the convert subcommands.
type ConvertOptions struct {
	*RootOptions
	Width int
	Base  int64
}

// ConversionResult is the JSON payload of a conversion.
type ConversionResult struct {
	Input  string `json:"input"`
	Width  int    `json:"width"`
	Base   int64  `json:"base"`
	Stored *int64 `json:"stored,omitempty"`
	Value  string `json:"value,omitempty"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between decimal and stored values",
		Long: `Convert a decimal value to its stored integer or back.

Negative inputs must follow "--" so they are not read as flags.

Examples:
  fixedfield convert to-stored 10.3
  fixedfield convert to-stored 0.0825 --width 4
  fixedfield convert from-stored 1030
  fixedfield convert to-stored -- -1.005`,
	}

	cmd.PersistentFlags().IntVar(&opts.Width, "width", fixedpoint.DefaultWidth, "number of fractional digits")
	cmd.PersistentFlags().Int64Var(&opts.Base, "base", fixedpoint.DefaultBase, "radix of the scale")

	cmd.AddCommand(&cobra.Command{
		Use:           "to-stored <value>",
		Short:         "Scale a decimal value to its stored integer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToStored(opts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "from-stored <raw>",
		Short:         "Convert a stored integer back to its decimal value",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromStored(opts, args[0], cmd)
		},
	})

	return cmd
}

func runToStored(opts *ConvertOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	scale, err := fixedpoint.NewScale(opts.Width, opts.Base)
	if err != nil {
		return operationFailure(formatter, err)
	}

	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return formatter.Fail(ExitFailure, string(fixedpoint.ErrCodeInvalidValue),
			fmt.Sprintf("cannot parse %q as a number", input), nil)
	}

	stored, err := fixedpoint.ToStored(value, scale)
	if err != nil {
		return operationFailure(formatter, err)
	}
	formatter.VerboseLog("%s scaled by %d", input, scale.Factor())

	if formatter.Format == "json" {
		return formatter.Success(ConversionResult{Input: input, Width: scale.Width, Base: scale.Base, Stored: &stored})
	}
	return formatter.Success(strconv.FormatInt(stored, 10))
}

func runFromStored(opts *ConvertOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	scale, err := fixedpoint.NewScale(opts.Width, opts.Base)
	if err != nil {
		return operationFailure(formatter, err)
	}

	raw, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric,
			fmt.Sprintf("cannot parse %q as an integer", input), nil)
	}

	value, _ := fixedpoint.FromStored(raw, true, scale)
	text := strconv.FormatFloat(value, 'f', -1, 64)

	if formatter.Format == "json" {
		return formatter.Success(ConversionResult{Input: input, Width: scale.Width, Base: scale.Base, Value: text})
	}
	return formatter.Success(text)
}
