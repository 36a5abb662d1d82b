package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/asset"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Against string
	List    bool
	JSON    bool
}

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	Archive string   `json:"archive"`
	Record  string   `json:"record,omitempty"`
	Records []string `json:"records,omitempty"`
	Dump    string   `json:"dump,omitempty"`
	Diff    string   `json:"diff,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <archive> [record]",
		Short: "Dump a content graph from an archive",
		Long: `Dump the decoded content graph stored under a record path.

With --against, the same record is read from a second archive and a line diff
of the two dumps is printed instead, e.g. to see what integration changed.

Example:
  modintegrator inspect Paks/Astro-WindowsNoEditor.pak --list
  modintegrator inspect Mods/999-AstroModIntegrator_P.pak Astro/Content/Maps/Staging_T2.umap \
    --against Paks/Astro-WindowsNoEditor.pak`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			record := ""
			if len(args) == 2 {
				record = args[1]
			}
			return runInspect(opts, args[0], record, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Against, "against", "", "archive to diff the record against")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list the records in the archive")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "dump the graph as JSON instead of text")

	return cmd
}

func runInspect(opts *InspectOptions, archivePath, record string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)

	a, err := archive.OpenSQLite(archivePath, true, archive.CompressionNone)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeArchive, "failed to open archive", err)
	}
	defer a.Close()

	result := InspectResult{Archive: archivePath, Record: record}

	if opts.List || record == "" {
		records, err := a.List(ctx)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeArchive, "failed to list archive", err)
		}
		if formatter.Format == "json" {
			result.Records = records
			return formatter.Success(result)
		}
		for _, r := range records {
			fmt.Fprintln(formatter.Writer, r)
		}
		return nil
	}

	dump, err := dumpRecord(ctx, a, record, opts.JSON)
	if err != nil {
		return inspectError(formatter, err)
	}

	if opts.Against == "" {
		if formatter.Format == "json" {
			result.Dump = dump
			return formatter.Success(result)
		}
		_, err := io.WriteString(formatter.Writer, dump)
		return err
	}

	other, err := archive.OpenSQLite(opts.Against, true, archive.CompressionNone)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeArchive, "failed to open archive", err)
	}
	defer other.Close()

	otherDump, err := dumpRecord(ctx, other, record, opts.JSON)
	if err != nil {
		return inspectError(formatter, err)
	}

	diff := lineDiff(otherDump, dump, newPalette(opts.NoColor || formatter.Format == "json"))
	if formatter.Format == "json" {
		result.Diff = diff
		return formatter.Success(result)
	}
	_, err = io.WriteString(formatter.Writer, diff)
	return err
}

func inspectError(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return fail(f, ExitCommandError, ErrCodeNotFound, "record not found", err)
	case errors.Is(err, asset.ErrInvalidGraph):
		return fail(f, ExitCommandError, ErrCodeDecode, "record is not a valid content graph", err)
	default:
		return fail(f, ExitCommandError, ErrCodeArchive, "failed to read record", err)
	}
}

// dumpRecord decodes record from r and renders it as text or indented JSON.
func dumpRecord(ctx context.Context, r archive.Reader, record string, asJSON bool) (string, error) {
	g, err := archive.NewStore([]archive.Reader{r}, nil, nil).Graph(ctx, record)
	if err != nil {
		return "", err
	}
	if asJSON {
		data, err := asset.EncodeJSON(g)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	}
	var buf bytes.Buffer
	if err := asset.Dump(&buf, g); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// lineDiff renders a unified-style line diff from a to b: removed lines are
// prefixed with "-", added lines with "+" and unchanged lines with a space.
func lineDiff(a, b string, p palette) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix, paint := " ", p.faint
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", p.ok
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", p.fail
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(paint("%s", prefix+line))
		}
	}
	return sb.String()
}
