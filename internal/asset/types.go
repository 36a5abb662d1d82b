package asset

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Index is a signed reference into a graph: 0 is null, positive values are
// exports and negative values are imports.
type Index int32

// ExportIndex returns the Index of the export stored at slot i.
func ExportIndex(slot int) Index { return Index(slot + 1) }

// ImportIndex returns the Index of the import stored at slot i.
func ImportIndex(slot int) Index { return Index(-(slot + 1)) }

// IsNull reports whether the index is the null reference.
func (i Index) IsNull() bool { return i == 0 }

// IsImport reports whether the index refers to an import.
func (i Index) IsImport() bool { return i < 0 }

// IsExport reports whether the index refers to an export.
func (i Index) IsExport() bool { return i > 0 }

// Slot returns the position in Imports or Exports the index refers to.
// The result is meaningless for the null index.
func (i Index) Slot() int {
	if i < 0 {
		return int(-i) - 1
	}
	return int(i) - 1
}

func (i Index) String() string {
	return strconv.Itoa(int(i))
}

// Name is an entry of the name table plus a numeric disambiguator.
// Number 0 means "no suffix"; otherwise the rendered form is Value_Number.
type Name struct {
	Value  string `json:"value"`
	Number int32  `json:"number,omitempty"`
}

func (n Name) String() string {
	if n.Number == 0 {
		return n.Value
	}
	return n.Value + "_" + strconv.Itoa(int(n.Number))
}

// Is reports whether the name's string part equals s, ignoring the number.
func (n Name) Is(s string) bool { return n.Value == s }

// GUID is a 128-bit identifier. It renders in the canonical UUID text form.
type GUID [16]byte

// NewGUID returns a fresh random (version 4) identifier.
func NewGUID() GUID {
	return GUID(uuid.New())
}

func (g GUID) String() string {
	return uuid.UUID(g).String()
}

func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *GUID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return fmt.Errorf("parse guid: %w", err)
	}
	*g = GUID(u)
	return nil
}

// ObjectFlags are the per-export object flags.
type ObjectFlags uint32

const (
	FlagPublic             ObjectFlags = 0x00000001
	FlagStandalone         ObjectFlags = 0x00000002
	FlagTransactional      ObjectFlags = 0x00000008
	FlagClassDefaultObject ObjectFlags = 0x00000010
	FlagArchetypeObject    ObjectFlags = 0x00000020
)

// Has reports whether all bits of f are set.
func (o ObjectFlags) Has(f ObjectFlags) bool { return o&f == f }
