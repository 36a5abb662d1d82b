// Package mutate performs structural edits on a decoded graph: appending
// import chains, naming new exports, adopting template exports and growing
// array properties.
//
// Nothing here reuses existing records unless asked to through an
// ImportCache; repeated calls append equivalent duplicates, which the loader
// accepts.
package mutate

import (
	"slices"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/patcherr"
)

// ImportStep describes one link of an import chain. Its outer is the previous
// step (or the chain's starting outer for the first step).
type ImportStep struct {
	ClassPackage string
	ClassName    string
	ObjectName   string
}

// PackageStep is the usual first link: the package an asset lives in.
func PackageStep(pkg string) ImportStep {
	return ImportStep{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: pkg}
}

// InternImportChain appends one import per step, each nested in the previous,
// and returns the index of the last. outer is the outer of the first step.
func InternImportChain(g *asset.Graph, outer asset.Index, steps ...ImportStep) asset.Index {
	for _, s := range steps {
		outer = g.AddImport(asset.Import{
			ClassPackage: g.AddName(s.ClassPackage),
			ClassName:    g.AddName(s.ClassName),
			OuterIndex:   outer,
			ObjectName:   g.AddName(s.ObjectName),
		})
	}
	return outer
}

// NextDisambiguatingNumber returns one more than the largest number carried
// by an export named base, or 1 if none carries one. Imports are not
// consulted: only export object names collide inside a package.
func NextDisambiguatingNumber(g *asset.Graph, base string) int32 {
	var highest int32
	for i := range g.Exports {
		if n := g.Exports[i].ObjectName; n.Is(base) && n.Number > highest {
			highest = n.Number
		}
	}
	return highest + 1
}

// CloneExport returns a deep copy of template that shares no memory with it.
func CloneExport(template *asset.Export) asset.Export {
	return template.Clone()
}

// Adopt clones an export taken from another graph so it can be added to g.
// Every index it stores refers to the other graph, so all of them are reset
// to null and the caller wires the ones it needs. Names are interned into g.
func Adopt(g *asset.Graph, template *asset.Export) asset.Export {
	e := CloneExport(template)
	e.ClassIndex = 0
	e.SuperIndex = 0
	e.OuterIndex = 0
	e.TemplateIndex = 0
	for _, list := range e.DependencyLists() {
		*list = nil
	}
	e.Children = nil
	if e.Field != nil {
		e.Field.PropertyClass = 0
	}
	for i := range e.Properties {
		clearReferences(&e.Properties[i])
	}
	for _, n := range e.Names() {
		g.AddNameReference(n.Value)
	}
	return e
}

func clearReferences(p *asset.Property) {
	if p.Kind == asset.KindObject {
		p.Object = 0
	}
	for i := range p.Values {
		clearReferences(&p.Values[i])
	}
}

// AppendArrayValue pushes value onto array. When the array declares an
// element type, value must be of that kind.
func AppendArrayValue(array *asset.Property, value asset.Property) error {
	if array.Kind != asset.KindArray {
		return patcherr.Corrupt("property %s is a %s, not an array", array.Name, array.Kind)
	}
	if elem, ok := array.ElementType(); ok && elem != string(value.Kind) {
		return patcherr.Corrupt("cannot append %s to %s array %s", value.Kind, elem, array.Name)
	}
	array.Values = append(array.Values, value)
	return nil
}

// AddDependency appends deps to list, skipping entries it already holds.
// Dependency lists are sets; order of first insertion is kept.
func AddDependency(list *[]asset.Index, deps ...asset.Index) {
	for _, d := range deps {
		if !slices.Contains(*list, d) {
			*list = append(*list, d)
		}
	}
}
