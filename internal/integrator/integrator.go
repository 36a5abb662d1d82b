// Package integrator runs every strategy over the installed mods and writes
// the patched graphs into the output archive.
//
// Work is split into units, one per (strategy, target record). Units run
// sequentially in strategy order and, within a strategy, in plan order. A
// unit that fails leaves its graph unwritten and never stops the units after
// it; only an output write failure aborts the run. Records baked into the
// integrator are written first, untouched by the strategies.
package integrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/strategy"
)

// FragmentSource supplies the fragments every mod contributed to a strategy,
// in application order. *mods.Set implements it.
type FragmentSource interface {
	Fragments(strategy string) []patch.Fragment
}

// Options configures a run.
type Options struct {
	// Store resolves target records and receives the patched graphs.
	Store *archive.Store

	// Mods supplies the patch fragments.
	Mods FragmentSource

	// Strategies run in slice order. Defaults to strategy.All with
	// StrategyOptions.
	Strategies      []strategy.Strategy
	StrategyOptions strategy.Options

	// DedupeImports makes import chains reuse equivalent existing imports.
	DedupeImports bool

	// Baked records are written into the output before any strategy runs.
	Baked []BakedRecord

	Logger *slog.Logger
}

// Run applies every strategy and returns the per-unit report. The returned
// error is non-nil only when the run could not finish: the context was
// cancelled or the output archive rejected a write.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Store == nil {
		return nil, errors.New("integrator: no archive store")
	}
	if opts.Mods == nil {
		return nil, errors.New("integrator: no fragment source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = strategy.All(opts.StrategyOptions)
	}

	r := &runner{store: opts.Store, logger: logger, dedupe: opts.DedupeImports}
	report := &Report{}
	for _, b := range opts.Baked {
		if err := opts.Store.PutGraph(ctx, b.Path, b.Graph); err != nil {
			return report, fmt.Errorf("write baked %s: %w", b.Path, err)
		}
		report.Baked = append(report.Baked, b.Path)
		logger.Debug("baked record written", "path", b.Path)
	}
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.runStrategy(ctx, s, opts.Mods.Fragments(s.Name()), report); err != nil {
			return report, err
		}
	}
	logger.Info("integration finished",
		"ok", report.Count(StatusOK),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed),
		"written", len(report.Written))
	return report, nil
}

type runner struct {
	store  *archive.Store
	logger *slog.Logger
	dedupe bool
}

func (r *runner) runStrategy(ctx context.Context, s strategy.Strategy, fragments []patch.Fragment, report *Report) error {
	name := s.Name()
	if len(fragments) == 0 {
		r.logger.Debug("no mod uses strategy", "strategy", name)
		return nil
	}
	r.logger.Debug("planning", "strategy", name, "fragments", len(fragments))

	targets, err := s.Plan(fragments)
	for _, planErr := range patcherr.Split(err) {
		tagged := patcherr.WithUnit(planErr, "", name)
		var pe *patcherr.Error
		target := ""
		if errors.As(tagged, &pe) {
			target = pe.Target
		}
		r.logger.Error("rejected patch", "strategy", name, "target", target, "error", tagged)
		report.add(Outcome{Strategy: name, Target: target, Status: StatusFailed, Err: tagged})
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := r.runUnit(ctx, name, t)
		report.add(outcome)
		if err != nil {
			return err
		}
		if outcome.Status == StatusOK {
			report.written(t.Path)
		}
	}
	return nil
}

// runUnit applies one target. The returned error is reserved for failures
// that must stop the run.
func (r *runner) runUnit(ctx context.Context, name string, t strategy.Target) (Outcome, error) {
	logger := r.logger.With("strategy", name, "target", t.Path)
	out := Outcome{Strategy: name, Target: t.Path}

	g, err := r.store.Graph(ctx, t.Path)
	switch {
	case errors.Is(err, archive.ErrNotFound):
		out.Status = StatusSkipped
		out.Warnings = []string{"record not found in any archive"}
		logger.Warn("record not found in any archive")
		return out, nil
	case errors.Is(err, asset.ErrInvalidGraph), errors.Is(err, archive.ErrCorruptRecord):
		return r.fail(logger, out, patcherr.WithUnit(patcherr.Corrupt("unreadable base record: %v", err), t.Path, name)), nil
	case err != nil:
		return r.fail(logger, out, patcherr.WithUnit(err, t.Path, name)), nil
	}

	rec := strategy.NewRecorder(logger, r.dedupe)
	applyErr := t.Apply(g, rec)
	out.Warnings = rec.Warnings()
	if applyErr != nil {
		return r.fail(logger, out, patcherr.WithUnit(applyErr, t.Path, name)), nil
	}
	if err := asset.Validate(g); err != nil {
		return r.fail(logger, out, patcherr.WithUnit(patcherr.Corrupt("patched graph is invalid: %v", err), t.Path, name)), nil
	}

	if err := r.store.PutGraph(ctx, t.Path, g); err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out, fmt.Errorf("write %s: %w", t.Path, err)
	}
	out.Status = StatusOK
	logger.Info("patched", "warnings", len(out.Warnings))
	return out, nil
}

func (r *runner) fail(logger *slog.Logger, out Outcome, err error) Outcome {
	logger.Error("unit failed", "error", err)
	out.Status = StatusFailed
	out.Err = err
	return out
}
