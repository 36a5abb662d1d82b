// Package strategy implements the graph patches a mod can request: mission
// trailheads, biome placement modifiers, item list entries and linked actor
// components.
//
// A Strategy turns the fragments every mod contributed under its name into a
// list of Targets. Each Target names one archive record and mutates the
// decoded graph of that record in place. Targets are independent: the
// orchestrator may apply them in any order or in parallel as long as no two
// touch the same graph instance.
package strategy

import (
	"fmt"
	"log/slog"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mutate"
	"github.com/roach88/modintegrator/internal/patch"
)

// Strategy names accepted under a mod's "integrator" metadata object, in the
// order they are applied.
const (
	NameMissionTrailheads       = "mission_trailheads"
	NameBiomePlacementModifiers = "biome_placement_modifiers"
	NameItemListEntries         = "item_list_entries"
	NameLinkedActorComponents   = "linked_actor_components"
)

// Strategy plans the targets one kind of patch touches.
type Strategy interface {
	Name() string

	// Plan merges fragments (in mod application order) and returns the
	// targets to apply. A MalformedPatch error may be returned alongside
	// targets built from the well-formed remainder.
	Plan(fragments []patch.Fragment) ([]Target, error)
}

// Target is one unit of work: a record path and the mutation to perform on
// its graph.
type Target struct {
	Path  string
	Apply func(g *asset.Graph, rec *Recorder) error
}

// Options configures the built-in strategies.
type Options struct {
	// Game is the content root name, e.g. "Astro".
	Game string

	// Maps are the record paths of the maps trailheads and biome modifiers
	// are injected into.
	Maps []string

	// NewGUID supplies construction script variable GUIDs. Defaults to
	// asset.NewGUID.
	NewGUID func() asset.GUID
}

// All returns the built-in strategies in application order.
func All(opts Options) []Strategy {
	if opts.NewGUID == nil {
		opts.NewGUID = asset.NewGUID
	}
	return []Strategy{
		&MissionTrailheads{Maps: opts.Maps},
		&BiomePlacementModifiers{Maps: opts.Maps},
		&ItemListEntries{Game: opts.Game},
		&LinkedActorComponents{Game: opts.Game, NewGUID: opts.NewGUID},
	}
}

// Recorder carries the per-unit logger and collects warnings for non-fatal
// skips.
type Recorder struct {
	logger        *slog.Logger
	dedupeImports bool
	warnings      []string
}

// NewRecorder returns a recorder logging through logger. With dedupeImports
// set, import chains reuse equivalent existing imports.
func NewRecorder(logger *slog.Logger, dedupeImports bool) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{logger: logger, dedupeImports: dedupeImports}
}

// Logger returns the unit logger.
func (r *Recorder) Logger() *slog.Logger {
	return r.logger
}

// Warnf records a warning and logs it.
func (r *Recorder) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	r.logger.Warn(msg)
}

// Warnings returns the warnings recorded so far.
func (r *Recorder) Warnings() []string {
	return r.warnings
}

func (r *Recorder) importer(g *asset.Graph) mutate.Importer {
	return mutate.NewImporter(g, r.dedupeImports)
}
