package mutate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/patcherr"
)

func missionStep(name string) ImportStep {
	return ImportStep{ClassPackage: "/Script/Astro", ClassName: "AstroMissionDataAsset", ObjectName: name}
}

func TestInternImportChain(t *testing.T) {
	g := asset.NewGraph()
	last := InternImportChain(g, 0, PackageStep("/Game/Mission/Foo"), missionStep("Foo"))

	require.Len(t, g.Imports, 2)
	assert.Equal(t, asset.Index(-2), last)

	imp, ok := g.Import(last)
	require.True(t, ok)
	assert.Equal(t, "Foo", imp.ObjectName.Value)
	assert.Equal(t, asset.Index(-1), imp.OuterIndex)

	pkg, ok := g.Import(imp.OuterIndex)
	require.True(t, ok)
	assert.Equal(t, "/Game/Mission/Foo", pkg.ObjectName.Value)
	assert.True(t, pkg.OuterIndex.IsNull())
	require.NoError(t, asset.Validate(g))
}

func TestInternImportChainNeverReuses(t *testing.T) {
	g := asset.NewGraph()
	a := InternImportChain(g, 0, PackageStep("/Game/X"), missionStep("X"))
	b := InternImportChain(g, 0, PackageStep("/Game/X"), missionStep("X"))
	assert.NotEqual(t, a, b)
	assert.Len(t, g.Imports, 4)
}

func TestImportCacheReusesEquivalentImports(t *testing.T) {
	g := asset.NewGraph()
	existing := InternImportChain(g, 0, PackageStep("/Game/X"), missionStep("X"))

	c := NewImportCache(g)
	assert.Equal(t, existing, c.Chain(0, PackageStep("/Game/X"), missionStep("X")))
	assert.Len(t, g.Imports, 2)

	other := c.Chain(0, PackageStep("/Game/X"), missionStep("Y"))
	assert.Len(t, g.Imports, 3)
	assert.Equal(t, other, c.Chain(0, PackageStep("/Game/X"), missionStep("Y")))
	assert.Len(t, g.Imports, 3)
}

func TestNewImporter(t *testing.T) {
	g := asset.NewGraph()
	plain := NewImporter(g, false)
	plain.Chain(0, PackageStep("/Game/X"))
	plain.Chain(0, PackageStep("/Game/X"))
	assert.Len(t, g.Imports, 2)

	cached := NewImporter(g, true)
	cached.Chain(0, PackageStep("/Game/X"))
	assert.Len(t, g.Imports, 2)
}

func TestNextDisambiguatingNumber(t *testing.T) {
	g := asset.NewGraph()
	assert.Equal(t, int32(1), NextDisambiguatingNumber(g, "SCS_Node"))

	for _, n := range []int32{0, 3, 7} {
		g.AddExport(asset.Export{
			Kind:       asset.ExportNormal,
			BaseExport: asset.BaseExport{ObjectName: g.AddNameWithNumber("SCS_Node", n)},
		})
	}
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddNameWithNumber("Other", 40)},
	})

	next := NextDisambiguatingNumber(g, "SCS_Node")
	assert.Equal(t, int32(8), next)
	assert.Equal(t, "SCS_Node_8", asset.Name{Value: "SCS_Node", Number: next}.String())
}

func TestNextDisambiguatingNumberUnnumbered(t *testing.T) {
	g := asset.NewGraph()
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddName("SCS_Node")},
	})
	assert.Equal(t, int32(1), NextDisambiguatingNumber(g, "SCS_Node"))
}

func TestNextDisambiguatingNumberIgnoresImports(t *testing.T) {
	g := asset.NewGraph()
	g.AddImport(asset.Import{
		ClassPackage: g.AddName("/Script/Engine"),
		ClassName:    g.AddName("SCS_Node"),
		ObjectName:   g.AddNameWithNumber("SCS_Node", 9),
	})
	g.AddExport(asset.Export{
		Kind:       asset.ExportNormal,
		BaseExport: asset.BaseExport{ObjectName: g.AddNameWithNumber("SCS_Node", 2)},
	})
	assert.Equal(t, int32(3), NextDisambiguatingNumber(g, "SCS_Node"))
}

func TestCloneExportIsDeep(t *testing.T) {
	template := asset.Export{
		Kind: asset.ExportNormal,
		BaseExport: asset.BaseExport{
			ObjectName:         asset.Name{Value: "Template"},
			CreateBeforeCreate: []asset.Index{1},
		},
		Properties: []asset.Property{
			asset.ArrayValue(asset.Name{Value: "List"}, asset.Name{Value: "ObjectProperty"},
				asset.ObjectValue(asset.Name{Value: "List"}, -1)),
		},
	}

	clone := CloneExport(&template)
	clone.CreateBeforeCreate[0] = 9
	clone.Properties[0].Values[0].Object = -9
	clone.Properties[0].ArrayType.Value = "Changed"

	assert.Equal(t, asset.Index(1), template.CreateBeforeCreate[0])
	assert.Equal(t, asset.Index(-1), template.Properties[0].Values[0].Object)
	assert.Equal(t, "ObjectProperty", template.Properties[0].ArrayType.Value)
}

func TestAdoptResetsForeignIndices(t *testing.T) {
	template := asset.Export{
		Kind: asset.ExportProperty,
		BaseExport: asset.BaseExport{
			ObjectName:                       asset.Name{Value: "Component"},
			ClassIndex:                       -3,
			OuterIndex:                       2,
			TemplateIndex:                    -4,
			SerializationBeforeSerialization: []asset.Index{2},
		},
		Field: &asset.FieldDef{Type: asset.Name{Value: "ObjectProperty"}, PropertyClass: -5},
		Properties: []asset.Property{
			asset.ObjectValue(asset.Name{Value: "Ref"}, 7),
		},
	}

	g := asset.NewGraph()
	e := Adopt(g, &template)

	assert.True(t, e.ClassIndex.IsNull())
	assert.True(t, e.OuterIndex.IsNull())
	assert.True(t, e.TemplateIndex.IsNull())
	assert.Nil(t, e.SerializationBeforeSerialization)
	assert.True(t, e.Field.PropertyClass.IsNull())
	assert.True(t, e.Properties[0].Object.IsNull())
	assert.True(t, g.HasName("ObjectProperty"))
	assert.True(t, g.HasName("Ref"))

	assert.Equal(t, asset.Index(-5), template.Field.PropertyClass)

	g.AddExport(e)
	require.NoError(t, asset.Validate(g))
}

func TestAppendArrayValue(t *testing.T) {
	arr := asset.ArrayValue(asset.Name{Value: "MissionData"}, asset.Name{Value: "ObjectProperty"})

	require.NoError(t, AppendArrayValue(&arr, asset.ObjectValue(asset.Name{Value: "MissionData"}, -1)))
	assert.Len(t, arr.Values, 1)

	err := AppendArrayValue(&arr, asset.SoftObjectValue(asset.Name{Value: "MissionData"}, asset.Name{Value: "/Game/X"}, "X"))
	assert.True(t, patcherr.IsCorrupt(err))
	assert.Len(t, arr.Values, 1)

	notArray := asset.BoolValue(asset.Name{Value: "b"}, true)
	assert.True(t, patcherr.IsCorrupt(AppendArrayValue(&notArray, asset.BoolValue(asset.Name{Value: "b"}, false))))
}

func TestAddDependency(t *testing.T) {
	var list []asset.Index
	AddDependency(&list, 3, -1)
	AddDependency(&list, -1, 5)
	assert.Equal(t, []asset.Index{3, -1, 5}, list)
}
