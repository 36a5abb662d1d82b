package strategy

import (
	"strconv"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mutate"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/resolve"
)

// excludedBiomeMap is a test map that never receives placement modifiers.
const excludedBiomeMap = "Astro/Content/Maps/test/BasicSphereT2.umap"

// defaultVoxelVolume is the voxel volume every map carries that belongs to no
// planet.
const defaultVoxelVolume = "Default Voxel Volume"

// BiomeType selects which biome array of a voxel volume a modifier targets.
type BiomeType string

const (
	BiomeSurface BiomeType = "Surface"
	BiomeCrust   BiomeType = "Crust"
)

func (b BiomeType) property() string {
	if b == BiomeCrust {
		return "CrustBiome"
	}
	return "SurfaceBiomes"
}

// PlacementModifier adds procedural modifiers to one biome layer of one
// planet.
type PlacementModifier struct {
	PlanetType string    `json:"planet_type"`
	BiomeType  BiomeType `json:"biome_type"`
	BiomeName  string    `json:"biome_name"`
	LayerName  string    `json:"layer_name"`
	Placements []string  `json:"placements"`
}

// BiomePlacementModifiers appends procedural modifiers to biome layers of
// planet voxel volumes.
type BiomePlacementModifiers struct {
	Maps []string
}

func (s *BiomePlacementModifiers) Name() string { return NameBiomePlacementModifiers }

func (s *BiomePlacementModifiers) Plan(fragments []patch.Fragment) ([]Target, error) {
	modifiers, err := patch.MergeRecords[PlacementModifier](s.Name(), patch.SchemaPlacementModifiers, fragments)
	if len(modifiers) == 0 {
		return nil, err
	}

	var targets []Target
	for _, m := range s.Maps {
		if m == excludedBiomeMap {
			continue
		}
		targets = append(targets, Target{
			Path: m,
			Apply: func(g *asset.Graph, rec *Recorder) error {
				return injectPlacementModifiers(g, rec, m, modifiers)
			},
		})
	}
	return targets, err
}

func injectPlacementModifiers(g *asset.Graph, rec *Recorder, mapPath string, modifiers []PlacementModifier) error {
	voxels := make(map[string]asset.Index)
	for _, idx := range resolve.ExportsByImportClass(g, "VoxelVolumeComponent") {
		e, _ := g.Export(idx)
		if e.ObjectName.Is(defaultVoxelVolume) {
			continue
		}
		voxels[e.ObjectName.Value] = idx
	}

	imports := rec.importer(g)
	for _, m := range modifiers {
		voxelName := m.PlanetType + "Voxels"
		idx, ok := voxels[voxelName]
		if !ok {
			rec.Warnf("voxel export %s not found in %s", voxelName, mapPath)
			continue
		}
		e, _ := g.Export(idx)

		target, err := findPlacementArray(e, m)
		if err != nil {
			return err
		}

		for _, placement := range m.Placements {
			stem := FileStem(placement)
			if stem == "" {
				return patcherr.Malformed(placement, "a procedural modifier path", nil)
			}
			modifier := imports.Chain(0,
				mutate.PackageStep(placement),
				mutate.ImportStep{ClassPackage: "/Script/Terrain2", ClassName: "ProceduralModifier", ObjectName: stem},
			)
			value := assetObject(g.AddName(strconv.Itoa(len(target.Values))), modifier)
			if err := mutate.AppendArrayValue(target, value); err != nil {
				return err
			}
		}
		rec.Logger().Debug("added placement modifiers",
			"voxels", voxelName, "biome", m.BiomeName, "layer", m.LayerName, "count", len(m.Placements))
	}
	return nil
}

// findPlacementArray walks biome -> layer -> ObjectPlacementModifiers inside
// a voxel export.
func findPlacementArray(e *asset.Export, m PlacementModifier) (*asset.Property, error) {
	biomes, err := resolve.FindArray(e.Properties, m.BiomeType.property())
	if err != nil {
		return nil, err
	}
	biome, err := resolve.FindNested(biomes, m.BiomeName)
	if err != nil {
		return nil, err
	}
	layers, err := resolve.FindArray(biome.Values, "Layers")
	if err != nil {
		return nil, err
	}
	layer, err := resolve.FindNested(layers, m.LayerName)
	if err != nil {
		return nil, err
	}
	return resolve.FindArray(layer.Values, "ObjectPlacementModifiers")
}
