// Package mods discovers installed mod archives and loads the descriptor each
// one carries.
//
// A mod archive is named NNN-ModId-Version_P.pak. NNN is the load priority:
// mods are applied in ascending priority, so the highest priority mod is
// applied last and wins slot conflicts, while archive lookups search the
// highest priority mod first. Each archive holds a metadata.json record,
// authored as JSONC (JSON with comments and trailing commas), whose
// "integrator" object maps strategy names to patch fragments.
package mods

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/patch"
)

// MetadataRecord is the archive record holding a mod's descriptor.
const MetadataRecord = "metadata.json"

// SchemaVersion is the newest descriptor schema this integrator reads.
const SchemaVersion = 2

var filenamePattern = regexp.MustCompile(`^(\d+)-([A-Za-z0-9]+)-([0-9A-Za-z.+~-]+)_P\.pak$`)

// ErrNotModArchive reports a file name that does not follow the mod archive
// naming convention.
var ErrNotModArchive = errors.New("not a mod archive name")

// Metadata is the descriptor a mod ships in metadata.json.
type Metadata struct {
	SchemaVersion int                        `json:"schema_version"`
	Name          string                     `json:"name"`
	ModID         string                     `json:"mod_id"`
	Version       string                     `json:"version"`
	Author        string                     `json:"author,omitempty"`
	Description   string                     `json:"description,omitempty"`
	Integrator    map[string]json.RawMessage `json:"integrator,omitempty"`
}

// FileName is the identity encoded in a mod archive's file name.
type FileName struct {
	Priority int
	ModID    string
	Version  string
}

// String renders the canonical archive name.
func (f FileName) String() string {
	return fmt.Sprintf("%03d-%s-%s_P.pak", f.Priority, f.ModID, f.Version)
}

// ParseFileName splits a mod archive name into priority, id and version.
func ParseFileName(name string) (FileName, error) {
	m := filenamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return FileName{}, fmt.Errorf("%s: %w", name, ErrNotModArchive)
	}
	priority, err := strconv.Atoi(m[1])
	if err != nil {
		return FileName{}, fmt.Errorf("%s: priority: %w", name, err)
	}
	return FileName{Priority: priority, ModID: m[2], Version: m[3]}, nil
}

// ParseMetadata decodes a JSONC descriptor.
func ParseMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(jsonc.ToJSON(data), &md); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	if md.SchemaVersion < 1 || md.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("parsing metadata: unsupported schema_version %d", md.SchemaVersion)
	}
	if md.ModID == "" {
		return nil, errors.New("parsing metadata: mod_id is required")
	}
	return &md, nil
}

// Mod is one installed mod: its archive and its descriptor.
type Mod struct {
	FileName
	Path     string
	Metadata *Metadata
	Archive  archive.Reader

	// Core marks a mod baked into the integrator rather than installed.
	Core bool
}

// Load reads the descriptor of the archive r found at path. A descriptor whose
// mod_id disagrees with the file name is rejected.
func Load(ctx context.Context, path string, r archive.Reader) (*Mod, error) {
	fn, err := ParseFileName(path)
	if err != nil {
		return nil, err
	}
	data, err := r.Get(ctx, MetadataRecord)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	md, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if md.ModID != fn.ModID {
		return nil, fmt.Errorf("%s: metadata mod_id %q does not match file name", path, md.ModID)
	}
	return &Mod{FileName: fn, Path: path, Metadata: md, Archive: r}, nil
}

// Discover lists the mod archive files in dir, skipping exclude (the output
// archive usually lives beside the mods) and names that do not follow the
// naming convention.
func Discover(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mods dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if exclude != "" && sameFile(p, exclude) {
			continue
		}
		if _, err := ParseFileName(e.Name()); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func sameFile(a, b string) bool {
	ca, errA := filepath.Abs(a)
	cb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && ca == cb
}

// Set is the installed mods in application order.
type Set struct {
	Mods []*Mod

	// Shadowed holds mods dropped because a higher priority archive carries
	// the same mod id.
	Shadowed []*Mod
}

// NewSet orders mods by ascending priority (ties by mod id, then path) and
// keeps only the highest priority archive per mod id.
func NewSet(mods []*Mod) *Set {
	sorted := slices.Clone(mods)
	slices.SortStableFunc(sorted, func(a, b *Mod) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.ModID, b.ModID),
			cmp.Compare(a.Path, b.Path),
		)
	})

	winner := make(map[string]*Mod, len(sorted))
	for _, m := range sorted {
		winner[m.ModID] = m
	}
	s := &Set{}
	for _, m := range sorted {
		if winner[m.ModID] == m {
			s.Mods = append(s.Mods, m)
		} else {
			s.Shadowed = append(s.Shadowed, m)
		}
	}
	return s
}

// Fragments returns every mod's fragment for strategy, in application order.
// Mods that do not use the strategy contribute nothing.
func (s *Set) Fragments(strategy string) []patch.Fragment {
	var out []patch.Fragment
	for _, m := range s.Mods {
		raw, ok := m.Metadata.Integrator[strategy]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		out = append(out, patch.Fragment{ModID: m.ModID, Data: raw})
	}
	return out
}

// Readers returns the mod archives for lookup, highest priority first.
func (s *Set) Readers() []archive.Reader {
	out := make([]archive.Reader, 0, len(s.Mods))
	for i := len(s.Mods) - 1; i >= 0; i-- {
		out = append(out, s.Mods[i].Archive)
	}
	return out
}

// UnknownStrategies reports integrator keys no strategy in known handles,
// keyed by mod id.
func (s *Set) UnknownStrategies(known []string) map[string][]string {
	out := map[string][]string{}
	for _, m := range s.Mods {
		for key := range m.Metadata.Integrator {
			if !slices.Contains(known, key) {
				out[m.ModID] = append(out[m.ModID], key)
			}
		}
		slices.Sort(out[m.ModID])
	}
	return out
}

// OpenDir discovers the mod archives in dir, opens each read-only and loads
// its descriptor. The baked mods join the set alongside them. Archives that
// fail to load are returned in skipped with the reason instead of failing the
// whole set. The returned close func releases every opened archive.
func OpenDir(ctx context.Context, dir, exclude string) (set *Set, skipped map[string]error, closeAll func() error, err error) {
	paths, err := Discover(dir, exclude)
	if err != nil {
		return nil, nil, nil, err
	}

	var opened []*archive.SQLite
	closeAll = func() error {
		var errs []error
		for _, a := range opened {
			errs = append(errs, a.Close())
		}
		return errors.Join(errs...)
	}

	loaded, err := Baked()
	if err != nil {
		return nil, nil, nil, err
	}
	skipped = map[string]error{}
	for _, p := range paths {
		a, err := archive.OpenSQLite(p, true, archive.CompressionNone)
		if err != nil {
			skipped[p] = err
			continue
		}
		opened = append(opened, a)
		m, err := Load(ctx, p, a)
		if err != nil {
			skipped[p] = err
			continue
		}
		loaded = append(loaded, m)
	}
	return NewSet(loaded), skipped, closeAll, nil
}
