package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/modintegrator/internal/integrator"
)

// palette colours text report lines. The zero value prints plain text.
type palette struct {
	ok, warn, fail, faint func(string, ...any) string
}

func newPalette(noColor bool) palette {
	if noColor {
		plain := fmt.Sprintf
		return palette{ok: plain, warn: plain, fail: plain, faint: plain}
	}
	return palette{
		ok:    color.GreenString,
		warn:  color.YellowString,
		fail:  color.RedString,
		faint: color.New(color.Faint).SprintfFunc(),
	}
}

// writeReport renders a run report as text, one line per unit followed by
// its warnings and error.
func writeReport(w io.Writer, r *integrator.Report, p palette) {
	for _, o := range r.Outcomes {
		var mark string
		switch o.Status {
		case integrator.StatusOK:
			mark = p.ok("✓")
		case integrator.StatusSkipped:
			mark = p.warn("-")
		default:
			mark = p.fail("✗")
		}
		target := o.Target
		if target == "" {
			target = "(plan)"
		}
		fmt.Fprintf(w, "%s %s %s\n", mark, p.faint("%-26s", o.Strategy), target)
		for _, warning := range o.Warnings {
			fmt.Fprintf(w, "    %s %s\n", p.warn("warning:"), warning)
		}
		if o.Err != nil {
			fmt.Fprintf(w, "    %s %v\n", p.fail("error:"), o.Err)
		}
	}
	if len(r.Outcomes) > 0 {
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("%d ok, %d skipped, %d failed, %d record(s) written",
		r.Count(integrator.StatusOK),
		r.Count(integrator.StatusSkipped),
		r.Count(integrator.StatusFailed),
		len(r.Written))
	if r.OK() {
		fmt.Fprintln(w, p.ok("%s", summary))
	} else {
		fmt.Fprintln(w, p.fail("%s", summary))
	}
}
