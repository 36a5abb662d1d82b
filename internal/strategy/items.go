package strategy

import (
	"errors"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mutate"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/resolve"
)

// ItemListEntries appends items to list properties of arbitrary assets.
// Object arrays receive a reference to the item's generated class; soft
// object arrays receive a soft path.
type ItemListEntries struct {
	Game string
}

func (s *ItemListEntries) Name() string { return NameItemListEntries }

func (s *ItemListEntries) Plan(fragments []patch.Fragment) ([]Target, error) {
	plan, err := patch.MergeItemLists(s.Name(), fragments)
	errs := []error{err}

	var targets []Target
	for _, t := range plan {
		if len(t.Lists) == 0 {
			continue
		}
		record, perr := GameToAbsolute(s.Game, t.Target)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		targets = append(targets, Target{
			Path: record,
			Apply: func(g *asset.Graph, rec *Recorder) error {
				return injectItems(g, rec, t)
			},
		})
	}
	return targets, errors.Join(errs...)
}

func injectItems(g *asset.Graph, rec *Recorder, t patch.ItemTarget) error {
	imports := rec.importer(g)
	for _, list := range t.Lists {
		sites := resolve.FindArrays(g, list.Name)
		if len(sites) == 0 {
			rec.Warnf("no array property %s in %s", list.Name, t.Target)
			continue
		}
		for _, item := range list.Items {
			parsed, err := parseItemPath(item)
			if err != nil {
				return err
			}

			var class asset.Index
			for _, site := range sites {
				e, _ := g.Export(site.Export)
				array := &e.Properties[site.Property]

				var value asset.Property
				switch site.ElementType {
				case string(asset.KindObject):
					if class.IsNull() {
						class = imports.Chain(0,
							mutate.PackageStep(parsed.real),
							mutate.ImportStep{ClassPackage: "/Script/Engine", ClassName: "BlueprintGeneratedClass", ObjectName: parsed.class},
						)
					}
					value = asset.ObjectValue(array.Name, class)
				case string(asset.KindSoftObject):
					g.AddNameReference(parsed.real)
					value = asset.SoftObjectValue(array.Name, g.AddName(parsed.real), parsed.softClass)
				default:
					rec.Logger().Debug("skipping array of unsupported element type",
						"property", list.Name, "type", site.ElementType)
					continue
				}

				if err := mutate.AppendArrayValue(array, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
