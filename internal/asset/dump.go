package asset

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a stable, line-oriented rendering of g. Two graphs with the same
// structure dump identically, which makes the output suitable for diffing.
func Dump(w io.Writer, g *Graph) error {
	var b strings.Builder
	fmt.Fprintf(&b, "names %d\n", len(g.names))
	for slot := range g.Imports {
		imp := &g.Imports[slot]
		fmt.Fprintf(&b, "import %d %s.%s %q outer=%d\n",
			ImportIndex(slot), imp.ClassPackage, imp.ClassName, imp.ObjectName.String(), imp.OuterIndex)
	}
	for slot := range g.Exports {
		e := &g.Exports[slot]
		fmt.Fprintf(&b, "export %d %s %q class=%d outer=%d template=%d flags=%#x\n",
			ExportIndex(slot), e.Kind, e.ObjectName.String(), e.ClassIndex, e.OuterIndex, e.TemplateIndex, uint32(e.ObjectFlags))
		fmt.Fprintf(&b, "  cbs=%v cbc=%v sbs=%v sbc=%v\n",
			e.CreateBeforeSerialization, e.CreateBeforeCreate,
			e.SerializationBeforeSerialization, e.SerializationBeforeCreate)
		if len(e.Children) > 0 {
			fmt.Fprintf(&b, "  children=%v\n", e.Children)
		}
		if e.Field != nil {
			fmt.Fprintf(&b, "  field %s class=%d\n", e.Field.Type, e.Field.PropertyClass)
		}
		for i := range e.Properties {
			dumpProperty(&b, &e.Properties[i], 1)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func dumpProperty(b *strings.Builder, p *Property, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s %s", indent, p.Name, p.Kind)
	switch p.Kind {
	case KindObject:
		fmt.Fprintf(b, " -> %d", p.Object)
	case KindSoftObject:
		if p.Soft != nil {
			fmt.Fprintf(b, " -> %s:%s", p.Soft.AssetPath, p.Soft.SubPath)
		}
	case KindArray:
		if t, ok := p.ElementType(); ok {
			fmt.Fprintf(b, "<%s>", t)
		}
		fmt.Fprintf(b, " len=%d", len(p.Values))
	case KindStruct:
		if p.StructType != nil {
			fmt.Fprintf(b, "<%s>", *p.StructType)
		}
	case KindName:
		if p.NameValue != nil {
			fmt.Fprintf(b, " = %s", *p.NameValue)
		}
	case KindBool:
		fmt.Fprintf(b, " = %t", p.Bool)
	case KindGuid:
		if p.GUID != nil {
			fmt.Fprintf(b, " = %s", p.GUID)
		}
	case KindInt:
		fmt.Fprintf(b, " = %d", p.Int)
	case KindStr:
		fmt.Fprintf(b, " = %q", p.Str)
	}
	b.WriteByte('\n')
	for i := range p.Values {
		dumpProperty(b, &p.Values[i], depth+1)
	}
}
