package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/config"
)

// archiveExt is the file extension of every archive the integrator reads.
const archiveExt = ".pak"

// loadConfig loads the config file named by --config, the environment and
// the given flag overrides.
func loadConfig(opts *RootOptions, overrides ...config.Override) (*config.Config, error) {
	return config.Load(opts.Config, overrides...)
}

// newLogger builds the run logger. Records go to stderr and, when the config
// names one, to the log file as well. A relative log file lives in the mods
// dir. --verbose forces debug level.
func newLogger(opts *RootOptions, cfg *config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	w := stderr
	closeLog := func() error { return nil }
	if cfg.LogFile != "" {
		path := cfg.LogFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ModsDir, path)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(stderr, f)
		closeLog = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeLog, nil
}

// openBaseArchives opens every base game archive in dir read-only. The
// returned readers are in lookup order: patch archives sort after the
// archives they patch, so names are searched in reverse lexical order.
func openBaseArchives(dir string) ([]archive.Reader, func() error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading game dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), archiveExt) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no %s archives in %s", archiveExt, dir)
	}
	slices.Sort(names)
	slices.Reverse(names)

	var opened []*archive.SQLite
	closeAll := func() error {
		var errs []error
		for _, a := range opened {
			errs = append(errs, a.Close())
		}
		return errors.Join(errs...)
	}
	readers := make([]archive.Reader, 0, len(names))
	for _, name := range names {
		a, err := archive.OpenSQLite(filepath.Join(dir, name), true, archive.CompressionNone)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		opened = append(opened, a)
		readers = append(readers, a)
	}
	return readers, closeAll, nil
}

// openOutputArchive recreates the output archive at path. Every run writes
// the output from scratch.
func openOutputArchive(path string, compression archive.CompressionTag) (*archive.SQLite, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove previous output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return archive.OpenSQLite(path, false, compression)
}
