package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/config"
	"github.com/roach88/modintegrator/internal/integrator"
	"github.com/roach88/modintegrator/internal/mods"
	"github.com/roach88/modintegrator/internal/strategy"
)

// IntegrateOptions holds flags for the integrate command.
type IntegrateOptions struct {
	*RootOptions
	GameDir       string
	ModsDir       string
	Output        string
	DedupeImports bool

	// NewGUID allows overriding construction script variable GUIDs (for
	// testing). If nil, defaults to random GUIDs.
	NewGUID func() asset.GUID
}

// NewIntegrateCommand creates the integrate command.
func NewIntegrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IntegrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Patch game content with every installed mod",
		Long: `Patch the game's content graphs with the requests of every installed mod.

Base archives are read from the game dir and mod archives from the mods dir.
Patched records are written into a fresh output archive, by default
999-AstroModIntegrator_P.pak in the mods dir. Settings come from --config,
MODINTEGRATOR_* environment variables and the flags below, in that order.

Example:
  modintegrator integrate --game-dir ~/Astroneer/Paks --mods-dir ~/Mods
  modintegrator integrate -c modintegrator.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GameDir, "game-dir", "", "directory holding the base game archives")
	cmd.Flags().StringVar(&opts.ModsDir, "mods-dir", "", "directory holding the mod archives")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output archive path")
	cmd.Flags().BoolVar(&opts.DedupeImports, "dedupe-imports", false, "reuse equivalent existing imports")

	return cmd
}

func (opts *IntegrateOptions) overrides() config.Override {
	return func(c *config.Config) {
		if opts.GameDir != "" {
			c.GameDir = opts.GameDir
		}
		if opts.ModsDir != "" {
			c.ModsDir = opts.ModsDir
		}
		if opts.Output != "" {
			c.Output = opts.Output
		}
		if opts.DedupeImports {
			c.DedupeImports = true
		}
	}
}

func runIntegrate(opts *IntegrateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, opts.overrides())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger, closeLog, err := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "failed to set up logging", err)
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening base archives", "dir", cfg.GameDir)
	base, closeBase, err := openBaseArchives(cfg.GameDir)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeArchive, "failed to open base archives", err)
	}
	defer logClose(logger, "base archives", closeBase)

	logger.Info("loading mods", "dir", cfg.ModsDir)
	set, skipped, closeMods, err := mods.OpenDir(ctx, cfg.ModsDir, cfg.Output)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "failed to read mods dir", err)
	}
	defer logClose(logger, "mod archives", closeMods)
	reportModSet(logger, set, skipped)

	out, err := openOutputArchive(cfg.Output, cfg.CompressionTag())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to open output archive", err)
	}
	defer logClose(logger, "output archive", out.Close)

	baked, err := integrator.BakedRecords(cfg.GameName)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDecode, "failed to load baked records", err)
	}

	report, err := integrator.Run(ctx, integrator.Options{
		Store: archive.NewStore(base, set.Readers(), out),
		Mods:  set,
		Baked: baked,
		StrategyOptions: strategy.Options{
			Game:    cfg.GameName,
			Maps:    cfg.MapPaths,
			NewGUID: opts.NewGUID,
		},
		DedupeImports: cfg.DedupeImports,
		Logger:        logger,
	})
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, "integration aborted", err)
	}

	if !report.OK() {
		msg := fmt.Sprintf("%d unit(s) failed", report.Count(integrator.StatusFailed))
		if formatter.Format == "json" {
			_ = formatter.Failure(ErrCodeGeneric, msg, report)
		} else {
			writeReport(formatter.Writer, report, newPalette(opts.NoColor))
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	writeReport(formatter.Writer, report, newPalette(opts.NoColor))
	return nil
}

// reportModSet logs what was loaded and everything that was left out.
func reportModSet(logger *slog.Logger, set *mods.Set, skipped map[string]error) {
	for path, err := range skipped {
		logger.Warn("skipping mod archive", "path", path, "error", err)
	}
	for _, m := range set.Shadowed {
		logger.Warn("mod shadowed by a higher priority archive", "mod", m.ModID, "path", m.Path)
	}
	for _, m := range set.Mods {
		logger.Info("mod loaded", "mod", m.ModID, "version", m.Version, "priority", m.Priority)
	}
	for id, keys := range set.UnknownStrategies(strategyNames()) {
		logger.Warn("mod requests unknown integrator entries", "mod", id, "keys", keys)
	}
}

func strategyNames() []string {
	var names []string
	for _, s := range strategy.All(strategy.Options{}) {
		names = append(names, s.Name())
	}
	return names
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logClose(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("error closing "+what, "error", err)
	}
}
