package strategy

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/patch"
)

const stagingMap = "Astro/Content/Maps/Staging_T2.umap"

func imp(g *asset.Graph, classPackage, className string, outer asset.Index, object string) asset.Index {
	return g.AddImport(asset.Import{
		ClassPackage: g.AddName(classPackage),
		ClassName:    g.AddName(className),
		OuterIndex:   outer,
		ObjectName:   g.AddName(object),
	})
}

func scriptClass(g *asset.Graph, pkg, class string) asset.Index {
	p := imp(g, "/Script/CoreUObject", "Package", 0, pkg)
	return imp(g, "/Script/CoreUObject", "Class", p, class)
}

func fragments(t *testing.T, payloads ...any) []patch.Fragment {
	t.Helper()
	out := make([]patch.Fragment, len(payloads))
	for i, p := range payloads {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		out[i] = patch.Fragment{ModID: "mod" + string(rune('A'+i)), Data: data}
	}
	return out
}

func biomeEntry(g *asset.Graph, array, name string, layers ...string) asset.Property {
	layerValues := make([]asset.Property, len(layers))
	for i, l := range layers {
		layerValues[i] = asset.StructValue(g.AddName("Layers"), g.AddName("BiomeLayer"),
			asset.NameValue(g.AddName("LayerName"), g.AddName(l)),
			asset.ArrayValue(g.AddName("ObjectPlacementModifiers"), g.AddName("ObjectProperty")),
		)
	}
	return asset.StructValue(g.AddName(array), g.AddName("Biome"),
		asset.NameValue(g.AddName("BiomeName"), g.AddName(name)),
		asset.ArrayValue(g.AddName("Layers"), g.AddName("StructProperty"), layerValues...),
	)
}

// mapGraph builds a map holding an AstroSettings export with an empty
// MissionData array, the default voxel volume and a TerranVoxels volume with
// one surface biome (Grassland: Top, Bottom) and one crust biome (Core: Deep).
func mapGraph(t *testing.T) *asset.Graph {
	t.Helper()
	g := asset.NewGraph()
	settings := scriptClass(g, "/Script/Astro", "AstroSettings")
	voxel := scriptClass(g, "/Script/Terrain2", "VoxelVolumeComponent")

	g.AddExport(asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName:                g.AddName("AstroSettings"),
			ClassIndex:                settings,
			CreateBeforeSerialization: []asset.Index{settings},
		},
		Properties: []asset.Property{
			asset.ArrayValue(g.AddName("MissionData"), g.AddName("ObjectProperty")),
		},
	})
	g.AddExport(asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName: g.AddName("Default Voxel Volume"),
			ClassIndex: voxel,
		},
	})
	g.AddExport(asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName:                g.AddName("TerranVoxels"),
			ClassIndex:                voxel,
			CreateBeforeSerialization: []asset.Index{voxel},
		},
		Properties: []asset.Property{
			asset.ArrayValue(g.AddName("SurfaceBiomes"), g.AddName("StructProperty"),
				biomeEntry(g, "SurfaceBiomes", "Grassland", "Top", "Bottom")),
			asset.ArrayValue(g.AddName("CrustBiome"), g.AddName("StructProperty"),
				biomeEntry(g, "CrustBiome", "Core", "Deep")),
		},
	})
	require.NoError(t, asset.Validate(g))
	return g
}

// itemGraph builds an item list asset: an ItemList export with an object
// array, and an OtherList export with object, soft object and int arrays.
func itemGraph(t *testing.T) *asset.Graph {
	t.Helper()
	g := asset.NewGraph()
	itemList := scriptClass(g, "/Script/Astro", "ItemList")
	otherList := scriptClass(g, "/Script/Astro", "OtherList")

	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("MasterItemList"), ClassIndex: itemList},
		Properties: []asset.Property{
			asset.ArrayValue(g.AddName("ItemTypes"), g.AddName("ObjectProperty")),
		},
	})
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("Other"), ClassIndex: otherList},
		Properties: []asset.Property{
			asset.ArrayValue(g.AddName("ItemTypes"), g.AddName("ObjectProperty")),
			asset.ArrayValue(g.AddName("Soft"), g.AddName("SoftObjectProperty")),
			asset.ArrayValue(g.AddName("Counts"), g.AddName("IntProperty")),
		},
	})
	require.NoError(t, asset.Validate(g))
	return g
}

// actorIndices names the anchors of the graph built by actorGraph.
type actorIndices struct {
	actor, cdo, scs asset.Index
	scsNodeClass    asset.Index
}

// actorGraph builds a minimal actor blueprint: the actor class export, its
// class default object, its construction script and one existing SCS node
// per entry of nodeNumbers.
func actorGraph(t *testing.T, nodeNumbers ...int32) (*asset.Graph, actorIndices) {
	t.Helper()
	g := asset.NewGraph()
	coreUObject := imp(g, "/Script/CoreUObject", "Package", 0, "/Script/CoreUObject")
	engine := imp(g, "/Script/CoreUObject", "Package", 0, "/Script/Engine")
	imp(g, "/Script/CoreUObject", "Class", coreUObject, "ObjectProperty")
	imp(g, "/Script/CoreUObject", "ObjectProperty", coreUObject, "Default__ObjectProperty")
	scsNode := imp(g, "/Script/CoreUObject", "Class", engine, "SCS_Node")
	scsNodeDefault := imp(g, "/Script/Engine", "SCS_Node", engine, "Default__SCS_Node")
	bgc := imp(g, "/Script/CoreUObject", "Class", engine, "BlueprintGeneratedClass")
	scsClass := imp(g, "/Script/CoreUObject", "Class", engine, "SimpleConstructionScript")
	actorBase := imp(g, "/Script/CoreUObject", "Class", engine, "Actor")

	idx := actorIndices{actor: 1, cdo: 2, scs: 3, scsNodeClass: scsNode}

	g.AddExport(asset.Export{
		Kind: asset.ExportClass,
		BaseExport: asset.BaseExport{
			ObjectName:                       g.AddName("Rover_C"),
			ClassIndex:                       bgc,
			SuperIndex:                       actorBase,
			ObjectFlags:                      asset.FlagPublic | asset.FlagTransactional,
			SerializationBeforeSerialization: []asset.Index{actorBase},
		},
	})
	g.AddExport(asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName:                g.AddName("Default__Rover_C"),
			ClassIndex:                idx.actor,
			ObjectFlags:               asset.FlagPublic | asset.FlagClassDefaultObject,
			CreateBeforeSerialization: []asset.Index{idx.actor},
		},
	})

	var nodes []asset.Property
	for i := range nodeNumbers {
		nodes = append(nodes, asset.ObjectValue(
			g.AddNameWithNumber("1", math.MinInt32), asset.ExportIndex(3+i)))
	}
	g.AddExport(asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName:         g.AddName("SimpleConstructionScript"),
			ClassIndex:         scsClass,
			OuterIndex:         idx.actor,
			CreateBeforeCreate: []asset.Index{idx.actor},
		},
		Properties: []asset.Property{
			asset.ArrayValue(g.AddName("AllNodes"), g.AddName("ObjectProperty"), nodes...),
			asset.ArrayValue(g.AddName("RootNodes"), g.AddName("ObjectProperty"), slices.Clone(nodes)...),
		},
	})
	for _, n := range nodeNumbers {
		g.AddExport(asset.Export{
			Kind: asset.ExportNormal,
			BaseExport: asset.BaseExport{
				ObjectName:                g.AddNameWithNumber("SCS_Node", n),
				ClassIndex:                scsNode,
				OuterIndex:                idx.scs,
				TemplateIndex:             scsNodeDefault,
				CreateBeforeCreate:        []asset.Index{idx.scs},
				SerializationBeforeCreate: []asset.Index{scsNode, scsNodeDefault},
			},
		})
	}
	require.NoError(t, asset.Validate(g))
	return g, idx
}

func fixedGUID() asset.GUID {
	return asset.GUID{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
}

func importChain(t *testing.T, g *asset.Graph, idx asset.Index) []asset.Import {
	t.Helper()
	var chain []asset.Import
	for !idx.IsNull() {
		i, ok := g.Import(idx)
		require.True(t, ok, "import %d does not resolve", idx)
		chain = append([]asset.Import{*i}, chain...)
		idx = i.OuterIndex
	}
	return chain
}
