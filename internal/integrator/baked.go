package integrator

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/strategy"
)

// baked holds the graphs the integrator adds to every output archive, laid
// out by content path below /Game/.
//
//go:embed baked
var baked embed.FS

// BakedRecord is a graph written verbatim into the output archive.
type BakedRecord struct {
	Path  string
	Graph *asset.Graph
}

// BakedRecords decodes the baked graphs and maps each to its record path in
// game's content tree, in path order.
func BakedRecords(game string) ([]BakedRecord, error) {
	var out []BakedRecord
	err := fs.WalkDir(baked, "baked", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".json" {
			return err
		}
		data, err := baked.ReadFile(p)
		if err != nil {
			return err
		}
		g, err := asset.DecodeJSON(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		rel := strings.TrimSuffix(strings.TrimPrefix(p, "baked/"), ".json")
		record, err := strategy.GameToAbsolute(game, "/Game/"+rel+".uasset")
		if err != nil {
			return err
		}
		out = append(out, BakedRecord{Path: record, Graph: g})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("baked records: %w", err)
	}
	return out, nil
}
