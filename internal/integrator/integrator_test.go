package integrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modintegrator/internal/archive"
	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mods"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/resolve"
	"github.com/roach88/modintegrator/internal/strategy"
)

const stagingMap = "Astro/Content/Maps/Staging_T2.umap"

// fragmentMap is a FragmentSource keyed by strategy name.
type fragmentMap map[string][]patch.Fragment

func (m fragmentMap) Fragments(name string) []patch.Fragment { return m[name] }

func fragment(t *testing.T, modID string, v any) patch.Fragment {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return patch.Fragment{ModID: modID, Data: data}
}

func class(g *asset.Graph, pkg, name string) asset.Index {
	p := g.AddImport(asset.Import{
		ClassPackage: g.AddName("/Script/CoreUObject"),
		ClassName:    g.AddName("Package"),
		ObjectName:   g.AddName(pkg),
	})
	return g.AddImport(asset.Import{
		ClassPackage: g.AddName("/Script/CoreUObject"),
		ClassName:    g.AddName("Class"),
		OuterIndex:   p,
		ObjectName:   g.AddName(name),
	})
}

// stagingGraph is a map with an empty MissionData array and a TerranVoxels
// volume holding the Grassland surface biome with a single Top layer.
func stagingGraph(t *testing.T) *asset.Graph {
	t.Helper()
	g := asset.NewGraph()
	settings := class(g, "/Script/Astro", "AstroSettings")
	voxel := class(g, "/Script/Terrain2", "VoxelVolumeComponent")

	layer := asset.StructValue(g.AddName("Layers"), g.AddName("BiomeLayer"),
		asset.NameValue(g.AddName("LayerName"), g.AddName("Top")),
		asset.ArrayValue(g.AddName("ObjectPlacementModifiers"), g.AddName("ObjectProperty")),
	)
	biome := asset.StructValue(g.AddName("SurfaceBiomes"), g.AddName("Biome"),
		asset.NameValue(g.AddName("BiomeName"), g.AddName("Grassland")),
		asset.ArrayValue(g.AddName("Layers"), g.AddName("StructProperty"), layer),
	)
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("AstroSettings"), ClassIndex: settings},
		Properties: []asset.Property{asset.ArrayValue(g.AddName("MissionData"), g.AddName("ObjectProperty"))},
	})
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("TerranVoxels"), ClassIndex: voxel},
		Properties: []asset.Property{asset.ArrayValue(g.AddName("SurfaceBiomes"), g.AddName("StructProperty"), biome)},
	})
	require.NoError(t, asset.Validate(g))
	return g
}

func putGraph(t *testing.T, a archive.Writer, path string, g *asset.Graph) {
	t.Helper()
	data, err := asset.Encode(g)
	require.NoError(t, err)
	require.NoError(t, a.Put(context.Background(), path, data))
}

func missionAndBiome(t *testing.T) fragmentMap {
	return fragmentMap{
		strategy.NameMissionTrailheads: {fragment(t, "modA", []string{"/Game/Missions/Foo"})},
		strategy.NameBiomePlacementModifiers: {fragment(t, "modB", []map[string]any{{
			"planet_type": "Terran",
			"biome_type":  "Surface",
			"biome_name":  "Grassland",
			"layer_name":  "Top",
			"placements":  []string{"/Game/Mods/Rocks"},
		}})},
	}
}

type fixture struct {
	base  *archive.Memory
	out   *archive.Memory
	store *archive.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{base: archive.NewMemory(), out: archive.NewMemory()}
	putGraph(t, f.base, stagingMap, stagingGraph(t))
	f.store = archive.NewStore([]archive.Reader{f.base}, nil, f.out)
	return f
}

func (f *fixture) options(src FragmentSource, maps ...string) Options {
	if len(maps) == 0 {
		maps = []string{stagingMap}
	}
	return Options{
		Store:           f.store,
		Mods:            src,
		StrategyOptions: strategy.Options{Game: "Astro", Maps: maps},
	}
}

func TestRunComposesStrategiesOnOneMap(t *testing.T) {
	f := newFixture(t)
	report, err := Run(context.Background(), f.options(missionAndBiome(t)))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Count(StatusOK))
	assert.Equal(t, []string{stagingMap}, report.Written)

	g, err := f.store.Graph(context.Background(), stagingMap)
	require.NoError(t, err)
	require.NoError(t, asset.Validate(g))

	settings, err := resolve.FindExport(g, "AstroSettings")
	require.NoError(t, err)
	e, _ := g.Export(settings)
	missions, err := resolve.FindArray(e.Properties, "MissionData")
	require.NoError(t, err)
	assert.Len(t, missions.Values, 1)

	voxels, _ := g.Export(asset.ExportIndex(1))
	biomes, err := resolve.FindArray(voxels.Properties, "SurfaceBiomes")
	require.NoError(t, err)
	grassland, err := resolve.FindNested(biomes, "Grassland")
	require.NoError(t, err)
	layers, err := resolve.FindArray(grassland.Values, "Layers")
	require.NoError(t, err)
	top, err := resolve.FindNested(layers, "Top")
	require.NoError(t, err)
	placements, err := resolve.FindArray(top.Values, "ObjectPlacementModifiers")
	require.NoError(t, err)
	assert.Len(t, placements.Values, 1)

	// The base archive is never written.
	baseGraph, err := archive.NewStore([]archive.Reader{f.base}, nil, nil).Graph(context.Background(), stagingMap)
	require.NoError(t, err)
	baseSettings, _ := baseGraph.Export(settings)
	assert.Empty(t, baseSettings.Properties[0].Values)
}

func TestRunMissingRecordIsSkipped(t *testing.T) {
	f := newFixture(t)
	missing := "Astro/Content/Maps/Nowhere.umap"
	report, err := Run(context.Background(), f.options(fragmentMap{
		strategy.NameMissionTrailheads: {fragment(t, "modA", []string{"/Game/Missions/Foo"})},
	}, missing, stagingMap))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, StatusSkipped, report.Outcomes[0].Status)
	assert.Equal(t, missing, report.Outcomes[0].Target)
	assert.NotEmpty(t, report.Outcomes[0].Warnings)
	assert.Equal(t, StatusOK, report.Outcomes[1].Status)
	assert.True(t, report.OK())
}

func TestRunMalformedFragmentDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	src := fragmentMap{
		strategy.NameMissionTrailheads: {
			fragment(t, "broken", map[string]string{"not": "a list"}),
			fragment(t, "modA", []string{"/Game/Missions/Foo"}),
		},
	}
	report, err := Run(context.Background(), f.options(src))
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.True(t, patcherr.IsMalformed(failed[0].Err))
	assert.Equal(t, strategy.NameMissionTrailheads, failed[0].Strategy)
	assert.Equal(t, 1, report.Count(StatusOK))
	assert.False(t, report.OK())
}

func TestRunFailedUnitIsNotWritten(t *testing.T) {
	f := newFixture(t)
	bare := asset.NewGraph()
	putGraph(t, f.base, "Astro/Content/Maps/Bare.umap", bare)

	report, err := Run(context.Background(), f.options(fragmentMap{
		strategy.NameMissionTrailheads: {fragment(t, "modA", []string{"/Game/Missions/Foo"})},
	}, "Astro/Content/Maps/Bare.umap"))
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.True(t, patcherr.IsNotFound(failed[0].Err))
	assert.Contains(t, failed[0].Err.Error(), "Bare.umap")
	assert.Empty(t, report.Written)

	_, err = f.out.Get(context.Background(), "Astro/Content/Maps/Bare.umap")
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestRunCorruptBaseRecord(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.base.Put(context.Background(), stagingMap, []byte("not a graph")))

	report, err := Run(context.Background(), f.options(fragmentMap{
		strategy.NameMissionTrailheads: {fragment(t, "modA", []string{"/Game/Missions/Foo"})},
	}))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.True(t, patcherr.IsCorrupt(report.Outcomes[0].Err))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, f.options(missionAndBiome(t)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRequiresStoreAndSource(t *testing.T) {
	_, err := Run(context.Background(), Options{Mods: fragmentMap{}})
	assert.Error(t, err)
	_, err = Run(context.Background(), Options{Store: newFixture(t).store})
	assert.Error(t, err)
}

func TestRunWithModSet(t *testing.T) {
	f := newFixture(t)
	modArchive := archive.NewMemory()
	require.NoError(t, modArchive.Put(context.Background(), mods.MetadataRecord, []byte(`{
		"schema_version": 2,
		"mod_id": "Trails",
		"version": "1.0.0",
		"integrator": {"mission_trailheads": ["/Game/Trails/Mission"]},
	}`)))
	m, err := mods.Load(context.Background(), "100-Trails-1.0.0_P.pak", modArchive)
	require.NoError(t, err)
	set := mods.NewSet([]*mods.Mod{m})

	opts := f.options(set)
	opts.Store = archive.NewStore([]archive.Reader{f.base}, set.Readers(), f.out)
	opts.DedupeImports = true
	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusOK))
}

func TestOutcomeJSON(t *testing.T) {
	o := Outcome{
		Strategy: strategy.NameItemListEntries,
		Target:   "Astro/Content/Items/List.uasset",
		Status:   StatusFailed,
		Err:      patcherr.WithUnit(patcherr.NotFound("export", "ItemList"), "Astro/Content/Items/List.uasset", strategy.NameItemListEntries),
	}
	data, err := json.Marshal(o)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, "TARGET_NOT_FOUND", got["code"])
	assert.Contains(t, got["error"], "ItemList")
	assert.NotContains(t, got, "warnings")
}

func TestBakedRecords(t *testing.T) {
	records, err := BakedRecords("Astro")
	require.NoError(t, err)
	require.Len(t, records, 1)

	notify := records[0]
	assert.Equal(t, "Astro/Content/Integrator/NotificationActor.uasset", notify.Path)
	require.NoError(t, asset.Validate(notify.Graph))

	class, ok := notify.Graph.Export(asset.ExportIndex(0))
	require.True(t, ok)
	assert.Equal(t, asset.ExportClass, class.Kind)
	assert.Equal(t, "NotificationActor_C", class.ObjectName.String())

	scs, err := resolve.FindExport(notify.Graph, "SimpleConstructionScript")
	require.NoError(t, err)
	e, _ := notify.Graph.Export(scs)
	nodes, err := resolve.FindArray(e.Properties, "AllNodes")
	require.NoError(t, err)
	assert.Empty(t, nodes.Values)
}

func TestRunWritesBakedRecords(t *testing.T) {
	f := newFixture(t)
	records, err := BakedRecords("Astro")
	require.NoError(t, err)

	opts := f.options(fragmentMap{})
	opts.Baked = records
	report, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Empty(t, report.Outcomes)
	assert.Empty(t, report.Written)
	assert.Equal(t, []string{"Astro/Content/Integrator/NotificationActor.uasset"}, report.Baked)

	g, err := f.store.Graph(context.Background(), "Astro/Content/Integrator/NotificationActor.uasset")
	require.NoError(t, err)
	assert.Len(t, g.Exports, 3)

	paths, err := f.out.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Astro/Content/Integrator/NotificationActor.uasset"}, paths)
}

func TestRunBakedWriteFailureAborts(t *testing.T) {
	f := newFixture(t)
	records, err := BakedRecords("Astro")
	require.NoError(t, err)

	opts := f.options(missionAndBiome(t))
	opts.Store = archive.NewStore([]archive.Reader{f.base}, nil, nil)
	opts.Baked = records
	report, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotificationActor.uasset")
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, report.Baked)
}
