package strategy

import (
	"errors"
	"math"
	"strconv"

	"github.com/roach88/modintegrator/internal/asset"
	"github.com/roach88/modintegrator/internal/mutate"
	"github.com/roach88/modintegrator/internal/patch"
	"github.com/roach88/modintegrator/internal/patcherr"
	"github.com/roach88/modintegrator/internal/resolve"
)

// nodeNameNumber is the number every AllNodes/RootNodes element name carries
// in shipped actor blueprints.
const nodeNameNumber int32 = math.MinInt32

// LinkedActorComponents attaches blueprint components to actor blueprints by
// adding a component property, its generated variable and a construction
// script node to the actor's graph.
type LinkedActorComponents struct {
	Game    string
	NewGUID func() asset.GUID
}

func (s *LinkedActorComponents) Name() string { return NameLinkedActorComponents }

func (s *LinkedActorComponents) Plan(fragments []patch.Fragment) ([]Target, error) {
	lists, err := patch.MergeTargetLists(s.Name(), fragments)
	errs := []error{err}

	newGUID := s.NewGUID
	if newGUID == nil {
		newGUID = asset.NewGUID
	}

	var targets []Target
	for _, l := range lists {
		record, perr := GameToAbsolute(s.Game, l.Target)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		targets = append(targets, Target{
			Path: record,
			Apply: func(g *asset.Graph, rec *Recorder) error {
				for _, component := range l.Items {
					if err := attachComponent(g, rec, component, newGUID); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}
	return targets, errors.Join(errs...)
}

// actorAnchors are the exports and well-known imports a component attaches to.
type actorAnchors struct {
	actor asset.Index
	scs   asset.Index
	cdo   asset.Index

	objectPropertyClass   asset.Index
	objectPropertyDefault asset.Index
	scsNodeClass          asset.Index
	scsNodeDefault        asset.Index
}

func findActorAnchors(g *asset.Graph) (actorAnchors, error) {
	var a actorAnchors
	var err error

	if a.actor, err = resolve.FindExport(g, "BlueprintGeneratedClass"); err != nil {
		return a, err
	}
	if e, _ := g.Export(a.actor); e.Kind != asset.ExportClass {
		return a, patcherr.Corrupt("actor export %s is a %s export, not a class", e.ObjectName, e.Kind)
	}
	if a.scs, err = resolve.FindExport(g, "SimpleConstructionScript"); err != nil {
		return a, err
	}
	var ok bool
	if a.cdo, ok = resolve.FindFlagged(g, asset.FlagClassDefaultObject); !ok {
		return a, patcherr.NotFound("export", "class default object")
	}

	wellKnown := []struct {
		dst                                 *asset.Index
		classPackage, className, objectName string
	}{
		{&a.objectPropertyClass, "/Script/CoreUObject", "Class", "ObjectProperty"},
		{&a.objectPropertyDefault, "/Script/CoreUObject", "ObjectProperty", "Default__ObjectProperty"},
		{&a.scsNodeClass, "/Script/CoreUObject", "Class", "SCS_Node"},
		{&a.scsNodeDefault, "/Script/Engine", "SCS_Node", "Default__SCS_Node"},
	}
	for _, w := range wellKnown {
		idx, ok := g.FindImport(w.classPackage, w.className, w.objectName)
		if !ok {
			return a, patcherr.Corrupt("well-known import %s %s %s missing", w.classPackage, w.className, w.objectName)
		}
		*w.dst = idx
	}
	return a, nil
}

func attachComponent(g *asset.Graph, rec *Recorder, raw string, newGUID func() asset.GUID) error {
	tmpl, err := loadActorTemplate()
	if err != nil {
		return err
	}
	anchors, err := findActorAnchors(g)
	if err != nil {
		return err
	}
	component, err := parseComponentPath(raw)
	if err != nil {
		return err
	}

	className := component.name + "_C"
	imports := rec.importer(g)
	pkg := imports.Chain(0, mutate.PackageStep(component.pkg))
	class := imports.Chain(pkg, mutate.ImportStep{
		ClassPackage: "/Script/Engine", ClassName: "BlueprintGeneratedClass", ObjectName: className,
	})
	defaultObject := imports.Chain(pkg, mutate.ImportStep{
		ClassPackage: "/Game/AddMe", ClassName: className, ObjectName: "Default__" + className,
	})

	// Component property on the actor class.
	prop := mutate.Adopt(g, &tmpl.Exports[templateComponent])
	prop.ObjectName = g.AddName(component.name)
	prop.Field.PropertyClass = class
	prop.OuterIndex = anchors.actor
	prop.ClassIndex = anchors.objectPropertyClass
	prop.TemplateIndex = anchors.objectPropertyDefault
	prop.CreateBeforeSerialization = []asset.Index{class}
	prop.CreateBeforeCreate = []asset.Index{anchors.actor}
	propIdx := g.AddExport(prop)

	actor, _ := g.Export(anchors.actor)
	actor.Children = append(actor.Children, propIdx)
	mutate.AddDependency(&actor.SerializationBeforeSerialization, propIdx)

	// Generated variable holding the component instance defaults.
	variable := mutate.Adopt(g, &tmpl.Exports[templateVariable])
	variable.ObjectName = g.AddName(component.name + "_GEN_VARIABLE")
	variable.OuterIndex = anchors.actor
	variable.ClassIndex = class
	variable.TemplateIndex = defaultObject
	variable.SerializationBeforeSerialization = []asset.Index{anchors.actor}
	variable.SerializationBeforeCreate = []asset.Index{class, defaultObject}
	variable.CreateBeforeCreate = []asset.Index{anchors.actor}
	g.AddNameReference(string(asset.KindBool))
	autoActivate := asset.BoolValue(g.AddName("bAutoActivate"), true)
	autoActivate.PropertyGUID = asset.ZeroGUID()
	variable.Properties = []asset.Property{autoActivate}
	variableIdx := g.AddExport(variable)

	// Construction script node wiring the variable into the actor.
	node := mutate.Adopt(g, &tmpl.Exports[templateSCSNode])
	node.ObjectName = g.AddNameWithNumber("SCS_Node", mutate.NextDisambiguatingNumber(g, "SCS_Node"))
	node.OuterIndex = anchors.scs
	node.ClassIndex = anchors.scsNodeClass
	node.TemplateIndex = anchors.scsNodeDefault
	node.CreateBeforeSerialization = []asset.Index{class, variableIdx}
	node.SerializationBeforeCreate = []asset.Index{anchors.scsNodeClass, anchors.scsNodeDefault}
	node.CreateBeforeCreate = []asset.Index{anchors.scs}
	node.Properties = nodeProperties(g, class, variableIdx, component.name, newGUID())
	nodeIdx := g.AddExport(node)

	scs, _ := g.Export(anchors.scs)
	mutate.AddDependency(&scs.CreateBeforeSerialization, nodeIdx)
	cdo, _ := g.Export(anchors.cdo)
	mutate.AddDependency(&cdo.SerializationBeforeSerialization, nodeIdx, variableIdx)

	scs, _ = g.Export(anchors.scs)
	for i := range scs.Properties {
		p := &scs.Properties[i]
		if p.Kind != asset.KindArray || !(p.Name.Is("AllNodes") || p.Name.Is("RootNodes")) {
			continue
		}
		var last int32
		for _, v := range p.Values {
			if v.Name.Number > last {
				last = v.Name.Number
			}
		}
		name := g.AddNameWithNumber(strconv.Itoa(int(last)+1), nodeNameNumber)
		if err := mutate.AppendArrayValue(p, asset.ObjectValue(name, nodeIdx)); err != nil {
			return err
		}
	}

	rec.Logger().Debug("attached component",
		"component", component.name, "package", component.pkg, "node", node.ObjectName.String())
	return nil
}

func nodeProperties(g *asset.Graph, class, variable asset.Index, name string, guid asset.GUID) []asset.Property {
	componentClass := asset.ObjectValue(g.AddName("ComponentClass"), class)
	componentClass.PropertyGUID = asset.ZeroGUID()

	componentTemplate := asset.ObjectValue(g.AddName("ComponentTemplate"), variable)
	componentTemplate.PropertyGUID = asset.ZeroGUID()

	variableGUID := asset.StructValue(g.AddName("VariableGuid"), g.AddName("Guid"),
		asset.GuidValue(g.AddName("VariableGuid"), guid))
	variableGUID.StructGUID = asset.ZeroGUID()
	variableGUID.SerializeNone = true

	internalName := asset.NameValue(g.AddName("InternalVariableName"), g.AddName(name))

	return []asset.Property{componentClass, componentTemplate, variableGUID, internalName}
}
