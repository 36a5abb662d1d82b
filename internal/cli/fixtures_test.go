package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mods"
)

const stagingMap = "Astro/Content/Maps/Staging_T2.umap"

const trailMetadata = `{
	"schema_version": 2,
	"name": "Trail Mod",
	"mod_id": "TrailMod",
	"version": "1.0.0",
	"integrator": {
		"mission_trailheads": ["/Game/TrailMod/Missions/Ridge"],
	},
}`

// stagingGraph is a map holding one AstroSettings export with an empty
// MissionData array.
func stagingGraph(t *testing.T) *asset.Graph {
	t.Helper()
	g := asset.NewGraph()
	pkg := g.AddImport(asset.Import{
		ClassPackage: g.AddName("/Script/CoreUObject"),
		ClassName:    g.AddName("Package"),
		ObjectName:   g.AddName("/Script/Astro"),
	})
	settings := g.AddImport(asset.Import{
		ClassPackage: g.AddName("/Script/CoreUObject"),
		ClassName:    g.AddName("Class"),
		OuterIndex:   pkg,
		ObjectName:   g.AddName("AstroSettings"),
	})
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("AstroSettings"), ClassIndex: settings},
		Properties: []asset.Property{asset.ArrayValue(g.AddName("MissionData"), g.AddName("ObjectProperty"))},
	})
	require.NoError(t, asset.Validate(g))
	return g
}

// writeArchive creates a SQLite archive at path holding the given records.
func writeArchive(t *testing.T, path string, records map[string][]byte) {
	t.Helper()
	a, err := archive.OpenSQLite(path, false, archive.CompressionZstd)
	require.NoError(t, err)
	for name, data := range records {
		require.NoError(t, a.Put(context.Background(), name, data))
	}
	require.NoError(t, a.Close())
}

func encodeGraph(t *testing.T, g *asset.Graph) []byte {
	t.Helper()
	data, err := asset.Encode(g)
	require.NoError(t, err)
	return data
}

// readGraph decodes record from the archive at path.
func readGraph(t *testing.T, path, record string) *asset.Graph {
	t.Helper()
	a, err := archive.OpenSQLite(path, true, archive.CompressionNone)
	require.NoError(t, err)
	defer a.Close()
	g, err := archive.NewStore([]archive.Reader{a}, nil, nil).Graph(context.Background(), record)
	require.NoError(t, err)
	return g
}

// gameFixture is a game dir holding one base archive with the staging map
// and an empty mods dir.
type gameFixture struct {
	gameDir string
	modsDir string
	config  string
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	root := t.TempDir()
	f := &gameFixture{
		gameDir: filepath.Join(root, "Paks"),
		modsDir: filepath.Join(root, "Mods"),
		config:  filepath.Join(root, "modintegrator.yaml"),
	}
	require.NoError(t, os.MkdirAll(f.gameDir, 0o755))
	require.NoError(t, os.MkdirAll(f.modsDir, 0o755))
	writeArchive(t, filepath.Join(f.gameDir, "Astro-WindowsNoEditor.pak"), map[string][]byte{
		stagingMap: encodeGraph(t, stagingGraph(t)),
	})
	require.NoError(t, os.WriteFile(f.config, []byte("map_paths:\n  - "+stagingMap+"\nlog_file: null\n"), 0o644))
	return f
}

func (f *gameFixture) addMod(t *testing.T, fileName, metadata string) {
	t.Helper()
	writeArchive(t, filepath.Join(f.modsDir, fileName), map[string][]byte{
		mods.MetadataRecord: []byte(metadata),
	})
}

func (f *gameFixture) output() string {
	return filepath.Join(f.modsDir, "999-AstroModIntegrator_P.pak")
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
