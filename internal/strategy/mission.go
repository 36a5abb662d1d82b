package strategy

import (
	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mutate"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/resolve"
)

// MissionTrailheads appends mission data assets to the MissionData array of
// each map's AstroSettings export.
type MissionTrailheads struct {
	Maps []string
}

func (s *MissionTrailheads) Name() string { return NameMissionTrailheads }

func (s *MissionTrailheads) Plan(fragments []patch.Fragment) ([]Target, error) {
	trailheads, err := patch.MergeList(s.Name(), fragments)
	if len(trailheads) == 0 {
		return nil, err
	}

	targets := make([]Target, 0, len(s.Maps))
	for _, m := range s.Maps {
		targets = append(targets, Target{
			Path: m,
			Apply: func(g *asset.Graph, rec *Recorder) error {
				return injectTrailheads(g, rec, trailheads)
			},
		})
	}
	return targets, err
}

func injectTrailheads(g *asset.Graph, rec *Recorder, trailheads []string) error {
	missionData, err := findMissionData(g)
	if err != nil {
		return err
	}

	imports := rec.importer(g)
	for _, trailhead := range trailheads {
		stem := FileStem(trailhead)
		if stem == "" {
			return patcherr.Malformed(trailhead, "a mission asset path", nil)
		}
		dataAsset := imports.Chain(0,
			mutate.PackageStep(trailhead),
			mutate.ImportStep{ClassPackage: "/Script/Astro", ClassName: "AstroMissionDataAsset", ObjectName: stem},
		)
		value := assetObject(missionData.Name, dataAsset)
		if err := mutate.AppendArrayValue(missionData, value); err != nil {
			return err
		}
		rec.Logger().Debug("added trailhead", "trailhead", trailhead, "import", dataAsset)
	}
	return nil
}

// findMissionData returns the first MissionData object array held by an
// AstroSettings export.
func findMissionData(g *asset.Graph) (*asset.Property, error) {
	for _, idx := range resolve.ExportsByImportClass(g, "AstroSettings") {
		e, _ := g.Export(idx)
		for i := range e.Properties {
			p := &e.Properties[i]
			if elem, ok := p.ElementType(); ok && p.Name.Is("MissionData") && elem == string(asset.KindObject) {
				return p, nil
			}
		}
	}
	return nil, patcherr.NotFound("AstroSettings array", "MissionData")
}

// assetObject builds an array element referencing idx. Elements carry the
// array's own name and an unset property guid.
func assetObject(name asset.Name, idx asset.Index) asset.Property {
	v := asset.ObjectValue(name, idx)
	v.PropertyGUID = asset.ZeroGUID()
	return v
}
