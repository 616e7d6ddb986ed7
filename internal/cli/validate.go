package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fixedfield/internal/schema"
)

// ValidationIssue is one problem found in a schema directory.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Models []string          `json:"models,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate fixed-point model declarations",
		Long: `Validate the CUE model declarations in a schema directory.

Every model is checked and all problems are reported: missing or empty
fixed_point and fields, scales that cannot form a factor and field names
that cannot be registered.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := schema.LoadDir(schemaDir, schema.LoadModeCollectAll)

	// Directory not found, no files, CUE syntax errors.
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *schema.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, schema.ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaDir)

	var issues []ValidationIssue
	for _, err := range loadErrors {
		issues = append(issues, toIssue(err))
	}

	var models []string
	for _, m := range loadResult.Models {
		formatter.VerboseLog("Validating model: %s", m.Name)
		if _, err := m.Registry(); err != nil {
			issues = append(issues, ValidationIssue{Code: schema.ErrCodeCatalog, Message: err.Error()})
			continue
		}
		models = append(models, m.Name)
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, issues)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Models: models})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d model(s) valid\n", len(models))
	return nil
}

func toIssue(err error) ValidationIssue {
	var loadErr *schema.LoadError
	if !errors.As(err, &loadErr) {
		return ValidationIssue{Code: schema.ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		issue.File = loadErr.Pos.Filename()
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}

// outputValidationIssues reports every issue. Validation failures exit 1.
func outputValidationIssues(formatter *OutputFormatter, issues []ValidationIssue) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	return exitErr
}
