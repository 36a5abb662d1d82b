package asset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGraph is matched (via errors.Is) by every ValidationError.
var ErrInvalidGraph = errors.New("invalid asset graph")

// ValidationError lists every invariant violation found in a graph.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid asset graph: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid asset graph: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// Validate checks the invariants the loader enforces:
//   - every non-null index (class, super, outer, template, children, field
//     class, object property values) resolves to a live record
//   - every dependency-list entry resolves (null entries are dangling too)
//   - every name used by an import or export is in the name table
//   - the dependency order is acyclic
func Validate(g *Graph) error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	checkRef := func(where string, i Index) {
		if !i.IsNull() && !g.Live(i) {
			report("%s references %d", where, i)
		}
	}
	checkName := func(where string, n Name) {
		if !g.HasName(n.Value) {
			report("%s uses name %q missing from name table", where, n.Value)
		}
	}

	for slot := range g.Imports {
		imp := &g.Imports[slot]
		where := fmt.Sprintf("import %d %s", ImportIndex(slot), imp.ObjectName)
		checkRef(where+" outer", imp.OuterIndex)
		checkName(where, imp.ClassPackage)
		checkName(where, imp.ClassName)
		checkName(where, imp.ObjectName)
	}

	for slot := range g.Exports {
		e := &g.Exports[slot]
		where := fmt.Sprintf("export %d %s", ExportIndex(slot), e.ObjectName)
		checkRef(where+" class", e.ClassIndex)
		checkRef(where+" super", e.SuperIndex)
		checkRef(where+" outer", e.OuterIndex)
		checkRef(where+" template", e.TemplateIndex)
		for _, child := range e.Children {
			if child.IsNull() {
				report("%s has a null child", where)
				continue
			}
			checkRef(where+" child", child)
		}
		if e.Field != nil {
			checkRef(where+" property class", e.Field.PropertyClass)
		}
		for i := range e.Properties {
			for _, ref := range e.Properties[i].references(nil) {
				checkRef(fmt.Sprintf("%s property %s", where, e.Properties[i].Name), ref)
			}
		}
		for _, n := range e.Names() {
			checkName(where, n)
		}
	}

	if err := BuildDependencyGraph(g).Check(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			problems = append(problems, ve.Problems...)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
