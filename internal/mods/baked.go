package mods

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/roach88/modintegrator/internal/archive"
)

//go:embed baked/coremod.json
var coreModMetadata []byte

// CoreModPriority is the load priority of the baked core mod.
const CoreModPriority = 800

// Baked returns the mods compiled into the integrator. Each is backed by an
// in-memory archive holding its descriptor and is marked Core. An installed
// archive with the same mod id and a higher priority shadows it.
func Baked() ([]*Mod, error) {
	fn := FileName{Priority: CoreModPriority, ModID: "CoreMod", Version: "0.1.0"}
	a := archive.NewMemory()
	if err := a.Put(context.Background(), MetadataRecord, coreModMetadata); err != nil {
		return nil, err
	}
	m, err := Load(context.Background(), fn.String(), a)
	if err != nil {
		return nil, fmt.Errorf("baked core mod: %w", err)
	}
	m.Core = true
	return []*Mod{m}, nil
}
