package strategy

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/roach88/modintegrator/internal/asset"
)

//go:embed templates/actor_template.json
var actorTemplateJSON []byte

// Slots of the baked actor template exports.
const (
	templateVariable  = 0
	templateComponent = 1
	templateSCSNode   = 2
)

var (
	actorTemplateOnce sync.Once
	actorTemplate     *asset.Graph
	actorTemplateErr  error
)

// loadActorTemplate decodes the baked template once. The returned graph is
// shared and must never be mutated; callers adopt copies of its exports.
func loadActorTemplate() (*asset.Graph, error) {
	actorTemplateOnce.Do(func() {
		g, err := asset.DecodeJSON(actorTemplateJSON)
		if err != nil {
			actorTemplateErr = fmt.Errorf("load actor template: %w", err)
			return
		}
		if len(g.Exports) != 3 {
			actorTemplateErr = fmt.Errorf("load actor template: want 3 exports, have %d", len(g.Exports))
			return
		}
		if g.Exports[templateComponent].Kind != asset.ExportProperty || g.Exports[templateComponent].Field == nil {
			actorTemplateErr = fmt.Errorf("load actor template: component export is not a property")
			return
		}
		actorTemplate = g
	})
	return actorTemplate, actorTemplateErr
}
