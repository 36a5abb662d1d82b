package patch

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema names a CUE definition a fragment (or fragment entry) must satisfy.
type Schema string

const (
	SchemaStringList         Schema = "#StringList"
	SchemaPlacementModifiers Schema = "#PlacementModifiers"
	SchemaItemLists          Schema = "#ItemLists"
	SchemaTargetLists        Schema = "#TargetLists"
)

// Expected returns the human-readable shape reported in MalformedPatch errors.
func (s Schema) Expected() string {
	switch s {
	case SchemaStringList:
		return "a list of strings"
	case SchemaPlacementModifiers:
		return "a list of {planet_type, biome_type: Surface|Crust, biome_name, layer_name, placements: [string]}"
	case SchemaItemLists:
		return "an object mapping item property names to lists of strings"
	case SchemaTargetLists:
		return "an object mapping target paths to values"
	default:
		return string(s)
	}
}

const schemaSource = `
#StringList: [...string]

#PlacementModifier: {
	planet_type: string
	biome_type:  "Surface" | "Crust"
	biome_name:  string
	layer_name:  string
	placements:  #StringList
	...
}

#PlacementModifiers: [...#PlacementModifier]

#ItemLists: [string]: #StringList

#TargetLists: [string]: _
`

var (
	cueMu      sync.Mutex
	cueCtx     *cue.Context
	cueSchemas cue.Value
)

func init() {
	cueCtx = cuecontext.New()
	cueSchemas = cueCtx.CompileString(schemaSource)
	if err := cueSchemas.Err(); err != nil {
		panic("patch: schema compilation failed: " + err.Error())
	}
}

// Validate checks that data (JSON) satisfies schema.
func Validate(schema Schema, data []byte) error {
	cueMu.Lock()
	defer cueMu.Unlock()

	v := cueCtx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	def := cueSchemas.LookupPath(cue.ParsePath(string(schema)))
	if !def.Exists() {
		return fmt.Errorf("unknown schema %s", schema)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
