package asset

// Import is a reference to an object defined outside the graph.
type Import struct {
	ClassPackage Name  `json:"class_package"`
	ClassName    Name  `json:"class_name"`
	OuterIndex   Index `json:"outer_index"`
	ObjectName   Name  `json:"object_name"`
	Optional     bool  `json:"optional,omitempty"`
}

// ExportKind distinguishes the structural export variants.
type ExportKind string

const (
	ExportNormal   ExportKind = "normal"
	ExportClass    ExportKind = "class"
	ExportProperty ExportKind = "property"
)

// BaseExport is the record shared by every export kind.
type BaseExport struct {
	ObjectName    Name        `json:"object_name"`
	ClassIndex    Index       `json:"class_index"`
	SuperIndex    Index       `json:"super_index,omitempty"`
	OuterIndex    Index       `json:"outer_index"`
	TemplateIndex Index       `json:"template_index"`
	ObjectFlags   ObjectFlags `json:"object_flags,omitempty"`

	CreateBeforeSerialization        []Index `json:"create_before_serialization,omitempty"`
	CreateBeforeCreate               []Index `json:"create_before_create,omitempty"`
	SerializationBeforeSerialization []Index `json:"serialization_before_serialization,omitempty"`
	SerializationBeforeCreate        []Index `json:"serialization_before_create,omitempty"`
}

// FieldDef is the payload of a property export: the declaration of a
// reflected field, e.g. an ObjectProperty bound to a class.
type FieldDef struct {
	Type          Name   `json:"type"`
	ArrayDim      int32  `json:"array_dim,omitempty"`
	PropertyFlags uint64 `json:"property_flags,omitempty"`
	PropertyClass Index  `json:"property_class,omitempty"`
}

// Export is an object defined inside the graph. Normal and class exports carry
// a property list; class exports also list their child fields; property
// exports carry a FieldDef.
type Export struct {
	Kind ExportKind `json:"kind"`
	BaseExport
	Properties []Property `json:"properties,omitempty"`
	Children   []Index    `json:"children,omitempty"`
	Field      *FieldDef  `json:"field,omitempty"`
}

// Clone returns a deep copy of e.
func (e Export) Clone() Export {
	out := e
	out.CreateBeforeSerialization = cloneIndices(e.CreateBeforeSerialization)
	out.CreateBeforeCreate = cloneIndices(e.CreateBeforeCreate)
	out.SerializationBeforeSerialization = cloneIndices(e.SerializationBeforeSerialization)
	out.SerializationBeforeCreate = cloneIndices(e.SerializationBeforeCreate)
	out.Properties = cloneProperties(e.Properties)
	out.Children = cloneIndices(e.Children)
	if e.Field != nil {
		f := *e.Field
		out.Field = &f
	}
	return out
}

// Names returns every Name the export carries, including those nested in
// its properties.
func (e *Export) Names() []Name {
	out := []Name{e.ObjectName}
	if e.Field != nil {
		out = append(out, e.Field.Type)
	}
	for i := range e.Properties {
		out = e.Properties[i].names(out)
	}
	return out
}

// DependencyLists returns pointers to the four ordering lists so callers can
// walk or rewrite them uniformly.
func (e *Export) DependencyLists() [4]*[]Index {
	return [4]*[]Index{
		&e.CreateBeforeSerialization,
		&e.CreateBeforeCreate,
		&e.SerializationBeforeSerialization,
		&e.SerializationBeforeCreate,
	}
}

func cloneIndices(in []Index) []Index {
	if in == nil {
		return nil
	}
	return append([]Index(nil), in...)
}

// Graph is one decoded content unit.
type Graph struct {
	names     []string
	nameIndex map[string]int

	Imports []Import
	Exports []Export
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nameIndex: make(map[string]int)}
}

// AddName interns s in the name table and returns it as a Name with no number.
func (g *Graph) AddName(s string) Name {
	g.intern(s)
	return Name{Value: s}
}

// AddNameWithNumber interns s and returns it paired with number n.
func (g *Graph) AddNameWithNumber(s string, n int32) Name {
	g.intern(s)
	return Name{Value: s, Number: n}
}

// AddNameReference interns s without producing a Name. Soft references need
// the path string in the table even though no property stores it as a Name.
func (g *Graph) AddNameReference(s string) {
	g.intern(s)
}

// HasName reports whether s is present in the name table.
func (g *Graph) HasName(s string) bool {
	if g.nameIndex == nil {
		g.reindexNames()
	}
	_, ok := g.nameIndex[s]
	return ok
}

// Names returns a copy of the name table in insertion order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.names...)
}

func (g *Graph) intern(s string) int {
	if g.nameIndex == nil {
		g.reindexNames()
	}
	if i, ok := g.nameIndex[s]; ok {
		return i
	}
	g.names = append(g.names, s)
	g.nameIndex[s] = len(g.names) - 1
	return len(g.names) - 1
}

func (g *Graph) reindexNames() {
	g.nameIndex = make(map[string]int, len(g.names))
	for i, s := range g.names {
		g.nameIndex[s] = i
	}
}

// AddImport appends imp, interning its names, and returns its Index.
// No attempt is made to reuse an equivalent existing import.
func (g *Graph) AddImport(imp Import) Index {
	g.intern(imp.ClassPackage.Value)
	g.intern(imp.ClassName.Value)
	g.intern(imp.ObjectName.Value)
	g.Imports = append(g.Imports, imp)
	return ImportIndex(len(g.Imports) - 1)
}

// AddExport appends e, interning every name it carries, and returns its Index.
func (g *Graph) AddExport(e Export) Index {
	for _, n := range e.Names() {
		g.intern(n.Value)
	}
	g.Exports = append(g.Exports, e)
	return ExportIndex(len(g.Exports) - 1)
}

// Import resolves a negative index.
func (g *Graph) Import(i Index) (*Import, bool) {
	if !i.IsImport() || i.Slot() >= len(g.Imports) {
		return nil, false
	}
	return &g.Imports[i.Slot()], true
}

// Export resolves a positive index.
func (g *Graph) Export(i Index) (*Export, bool) {
	if !i.IsExport() || i.Slot() >= len(g.Exports) {
		return nil, false
	}
	return &g.Exports[i.Slot()], true
}

// Live reports whether i resolves to an import or export of g.
func (g *Graph) Live(i Index) bool {
	switch {
	case i.IsImport():
		return i.Slot() < len(g.Imports)
	case i.IsExport():
		return i.Slot() < len(g.Exports)
	}
	return false
}

// FindImport returns the first import matching the (class package, class
// name, object name) triple.
func (g *Graph) FindImport(classPackage, className, objectName string) (Index, bool) {
	for i := range g.Imports {
		imp := &g.Imports[i]
		if imp.ClassPackage.Is(classPackage) && imp.ClassName.Is(className) && imp.ObjectName.Is(objectName) {
			return ImportIndex(i), true
		}
	}
	return 0, false
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		names:   append([]string(nil), g.names...),
		Imports: append([]Import(nil), g.Imports...),
	}
	out.reindexNames()
	if g.Exports != nil {
		out.Exports = make([]Export, len(g.Exports))
		for i := range g.Exports {
			out.Exports[i] = g.Exports[i].Clone()
		}
	}
	return out
}
