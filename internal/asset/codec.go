package asset

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// formatVersion is bumped whenever the wire layout changes incompatibly.
const formatVersion = 1

// wireGraph is the serialised layout shared by the CBOR and JSON codecs.
type wireGraph struct {
	Version int      `json:"version"`
	Names   []string `json:"names"`
	Imports []Import `json:"imports,omitempty"`
	Exports []Export `json:"exports,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("asset: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("asset: CBOR decoder initialization failed: " + err.Error())
	}
}

func toWire(g *Graph) wireGraph {
	return wireGraph{
		Version: formatVersion,
		Names:   g.names,
		Imports: g.Imports,
		Exports: g.Exports,
	}
}

func fromWire(w wireGraph) (*Graph, error) {
	if w.Version != formatVersion {
		return nil, fmt.Errorf("unsupported graph format version %d", w.Version)
	}
	g := &Graph{names: w.Names, Imports: w.Imports, Exports: w.Exports}
	g.reindexNames()
	if len(g.nameIndex) != len(g.names) {
		return nil, &ValidationError{Problems: []string{"name table contains duplicate entries"}}
	}
	if err := Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode serialises g with deterministic CBOR.
func Encode(g *Graph) ([]byte, error) {
	data, err := encMode.Marshal(toWire(g))
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode and validates the result. A graph
// that fails validation is returned as an error matching ErrInvalidGraph.
func Decode(data []byte) (*Graph, error) {
	var w wireGraph
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return fromWire(w)
}

// EncodeJSON renders g in the human-editable form.
func EncodeJSON(g *Graph) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph json: %w", err)
	}
	return data, nil
}

// DecodeJSON parses the human-editable form and validates the result.
func DecodeJSON(data []byte) (*Graph, error) {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode graph json: %w", err)
	}
	return fromWire(w)
}
