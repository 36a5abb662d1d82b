package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/modintegrator/internal/config"
	"github.com/roach88/modintegrator/internal/mods"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/strategy"
)

// ValidationIssue is one problem found in the installed mods.
type ValidationIssue struct {
	Severity string `json:"severity"` // "error" | "warning"
	Source   string `json:"source"`   // archive path, mod id or strategy name
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Mods   []string          `json:"mods"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

func (r *ValidationResult) errorCount() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == "error" {
			n++
		}
	}
	return n
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mods-dir>",
		Short: "Check installed mods without touching any archive content",
		Long: `Check every mod archive in a directory: file name, metadata.json and the
shape of each integrator entry. Base game archives are not read and nothing
is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	set, skipped, closeMods, err := mods.OpenDir(commandContext(cmd), modsDir, "")
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "failed to read mods dir", err)
	}
	defer func() { _ = closeMods() }()

	result := ValidateMods(set, skipped)
	formatter.VerboseLog("Checked %d mod(s) in %s", len(result.Mods), modsDir)

	if !result.Valid {
		msg := fmt.Sprintf("validation failed with %d error(s)", result.errorCount())
		if formatter.Format == "json" {
			_ = formatter.Failure(ErrCodeGeneric, msg, result)
		} else {
			writeValidation(formatter.Writer, result, newPalette(opts.NoColor))
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeValidation(formatter.Writer, result, newPalette(opts.NoColor))
	return nil
}

// ValidateMods plans every strategy against the mod set with the default
// configuration and collects every problem found. Planning merges the
// fragments and checks their shape without reading any archive record.
func ValidateMods(set *mods.Set, skipped map[string]error) *ValidationResult {
	result := &ValidationResult{Mods: []string{}}
	for _, m := range set.Mods {
		// Baked mods are planned with the rest but are not reported as installed.
		if m.Core {
			continue
		}
		result.Mods = append(result.Mods, m.FileName.String())
	}

	paths := make([]string, 0, len(skipped))
	for p := range skipped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: "error", Source: p, Message: skipped[p].Error(),
		})
	}

	for _, m := range set.Shadowed {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: "warning", Source: m.Path,
			Message: "shadowed by a higher priority archive of mod " + m.ModID,
		})
	}

	unknown := set.UnknownStrategies(strategyNames())
	ids := make([]string, 0, len(unknown))
	for id := range unknown {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, key := range unknown[id] {
			result.Issues = append(result.Issues, ValidationIssue{
				Severity: "warning", Source: id,
				Message: fmt.Sprintf("integrator entry %q is not handled", key),
			})
		}
	}

	defaults := config.Default()
	for _, s := range strategy.All(strategy.Options{Game: defaults.GameName, Maps: defaults.MapPaths}) {
		_, err := s.Plan(set.Fragments(s.Name()))
		for _, e := range patcherr.Split(err) {
			issue := ValidationIssue{Severity: "error", Source: s.Name(), Message: e.Error()}
			if code, ok := patcherr.CodeOf(e); ok {
				issue.Code = string(code)
			}
			result.Issues = append(result.Issues, issue)
		}
	}

	result.Valid = result.errorCount() == 0
	return result
}

func writeValidation(w io.Writer, r *ValidationResult, p palette) {
	for _, issue := range r.Issues {
		label := p.warn("warning:")
		if issue.Severity == "error" {
			label = p.fail("error:")
		}
		fmt.Fprintf(w, "%s %s: %s\n", label, issue.Source, issue.Message)
	}
	if r.Valid {
		fmt.Fprintln(w, p.ok("✓ %d mod(s) valid", len(r.Mods)))
		return
	}
	fmt.Fprintln(w, p.fail("✗ Validation failed"))
}
