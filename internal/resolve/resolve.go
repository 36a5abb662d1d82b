// Package resolve locates semantically named anchor points inside a decoded
// graph. Every lookup is read-only and reports absence as a TargetNotFound
// error carrying the searched name; callers decide whether that is fatal.
package resolve

import (
	"strings"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/patcherr"
)

// ClassName returns the object name of the import e's class refers to. Exports
// whose class is another export (or null) have no import class.
func ClassName(g *asset.Graph, e *asset.Export) (string, bool) {
	imp, ok := g.Import(e.ClassIndex)
	if !ok {
		return "", false
	}
	return imp.ObjectName.Value, true
}

// ExportsByImportClass returns, in export order, every export whose declared
// class is an import named className.
func ExportsByImportClass(g *asset.Graph, className string) []asset.Index {
	var out []asset.Index
	for i := range g.Exports {
		if name, ok := ClassName(g, &g.Exports[i]); ok && name == className {
			out = append(out, asset.ExportIndex(i))
		}
	}
	return out
}

// FindExport returns the single export of class className. When several
// exist the first wins.
func FindExport(g *asset.Graph, className string) (asset.Index, error) {
	found := ExportsByImportClass(g, className)
	if len(found) == 0 {
		return 0, patcherr.NotFound("export of class", className)
	}
	return found[0], nil
}

// FindFlagged returns the first export carrying every flag in flags.
func FindFlagged(g *asset.Graph, flags asset.ObjectFlags) (asset.Index, bool) {
	for i := range g.Exports {
		if g.Exports[i].ObjectFlags.Has(flags) {
			return asset.ExportIndex(i), true
		}
	}
	return 0, false
}

// FindProperty returns the position of the first property in props named
// name.
func FindProperty(props []asset.Property, name string) (int, error) {
	for i := range props {
		if props[i].Name.Is(name) {
			return i, nil
		}
	}
	return -1, patcherr.NotFound("property", name)
}

// FindPropertyQualified searches e for a property named by a possibly
// qualified name. "Owner.Prop" only matches when e's declared class is the
// import Owner, which tells apart identically named properties inherited from
// different base classes.
func FindPropertyQualified(g *asset.Graph, e *asset.Export, name string) (int, error) {
	owner, prop, qualified := strings.Cut(name, ".")
	if !qualified {
		return FindProperty(e.Properties, name)
	}
	if class, ok := ClassName(g, e); !ok || class != owner {
		return -1, patcherr.NotFound("property", name)
	}
	return FindProperty(e.Properties, prop)
}

// FindArray returns the array property named name. A property of that name
// that is not an array means the data is not laid out the way the caller
// expects, which is reported as corruption rather than absence.
func FindArray(props []asset.Property, name string) (*asset.Property, error) {
	i, err := FindProperty(props, name)
	if err != nil {
		return nil, err
	}
	if props[i].Kind != asset.KindArray {
		return nil, patcherr.Corrupt("property %s is a %s, not an array", name, props[i].Kind)
	}
	return &props[i], nil
}

// FindNested returns the first struct element of array that holds a
// NameProperty whose value is value.
func FindNested(array *asset.Property, value string) (*asset.Property, error) {
	for i := range array.Values {
		elem := &array.Values[i]
		if elem.Kind != asset.KindStruct {
			continue
		}
		for j := range elem.Values {
			field := &elem.Values[j]
			if field.Kind == asset.KindName && field.NameValue != nil && field.NameValue.Is(value) {
				return elem, nil
			}
		}
	}
	return nil, patcherr.NotFound(array.Name.Value+" element", value)
}

// ArraySite is an array property located by export and property position,
// together with its declared element type.
type ArraySite struct {
	Export      asset.Index
	Property    int
	ElementType string
}

// FindArrays returns every array property in the graph matching the possibly
// qualified name, in export then property order. An export may hold several.
func FindArrays(g *asset.Graph, name string) []ArraySite {
	var out []ArraySite
	for i := range g.Exports {
		e := &g.Exports[i]
		view := *e
		for start := 0; start < len(e.Properties); {
			view.Properties = e.Properties[start:]
			k, err := FindPropertyQualified(g, &view, name)
			if err != nil {
				break
			}
			j := start + k
			if p := &e.Properties[j]; p.Kind == asset.KindArray {
				elem, _ := p.ElementType()
				out = append(out, ArraySite{Export: asset.ExportIndex(i), Property: j, ElementType: elem})
			}
			start = j + 1
		}
	}
	return out
}
