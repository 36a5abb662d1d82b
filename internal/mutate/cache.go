package mutate

import "github.com/roach88/modintegrator/internal/asset"

// Importer appends import chains to one graph.
type Importer interface {
	Chain(outer asset.Index, steps ...ImportStep) asset.Index
}

// NewImporter returns an Importer for g. With dedupe set, chains reuse
// structurally identical imports already in g; otherwise every call appends.
func NewImporter(g *asset.Graph, dedupe bool) Importer {
	if dedupe {
		return NewImportCache(g)
	}
	return appender{g: g}
}

type appender struct {
	g *asset.Graph
}

func (a appender) Chain(outer asset.Index, steps ...ImportStep) asset.Index {
	return InternImportChain(a.g, outer, steps...)
}

type importKey struct {
	classPackage asset.Name
	className    asset.Name
	outer        asset.Index
	objectName   asset.Name
}

// ImportCache interns imports, returning an existing record when one with the
// same class package, class name, outer and object name is present.
type ImportCache struct {
	g     *asset.Graph
	known map[importKey]asset.Index
}

// NewImportCache indexes the imports g already holds. The cache must be the
// only thing adding imports to g while it is in use.
func NewImportCache(g *asset.Graph) *ImportCache {
	c := &ImportCache{g: g, known: make(map[importKey]asset.Index, len(g.Imports))}
	for slot := range g.Imports {
		imp := &g.Imports[slot]
		k := importKey{imp.ClassPackage, imp.ClassName, imp.OuterIndex, imp.ObjectName}
		if _, ok := c.known[k]; !ok {
			c.known[k] = asset.ImportIndex(slot)
		}
	}
	return c
}

// Chain interns each step nested in the previous and returns the last index.
func (c *ImportCache) Chain(outer asset.Index, steps ...ImportStep) asset.Index {
	for _, s := range steps {
		k := importKey{
			classPackage: asset.Name{Value: s.ClassPackage},
			className:    asset.Name{Value: s.ClassName},
			outer:        outer,
			objectName:   asset.Name{Value: s.ObjectName},
		}
		if idx, ok := c.known[k]; ok {
			outer = idx
			continue
		}
		outer = InternImportChain(c.g, outer, s)
		c.known[k] = outer
	}
	return outer
}
