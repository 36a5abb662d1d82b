package strategy

import (
	"path"
	"strings"

	"github.com/roach88/modintegrator/internal/patcherr"
)

// GameToAbsolute maps a "/Game/..." content path to its record path inside
// the archive, e.g. "/Game/Items/List" -> "Astro/Content/Items/List.uasset".
// The .uasset extension is only added when the path has none.
func GameToAbsolute(game, gamePath string) (string, error) {
	rest, ok := strings.CutPrefix(gamePath, "/Game/")
	if !ok {
		return "", patcherr.Malformed(gamePath, "a /Game/ content path", nil)
	}
	out := game + "/Content/" + rest
	if path.Ext(rest) == "" {
		out += ".uasset"
	}
	return out, nil
}

// FileStem returns the final path element without its last extension. A
// leading dot does not start an extension, so ".hidden" is its own stem.
func FileStem(p string) string {
	base := path.Base(p)
	if base == "/" || base == "." {
		return ""
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// itemPath is an asset path split into the names an item list entry needs.
type itemPath struct {
	real      string // package path
	class     string // generated class object name
	softClass string // sub-path of a soft reference
}

// parseItemPath accepts "path" or "path.ClassName". Without an explicit class
// the generated class is the file stem plus "_C" and the soft sub-path is the
// bare stem.
func parseItemPath(p string) (itemPath, error) {
	if real, class, ok := strings.Cut(p, "."); ok {
		class, _, _ = strings.Cut(class, ".")
		if real == "" || class == "" {
			return itemPath{}, patcherr.Malformed(p, "an item path or path.ClassName", nil)
		}
		return itemPath{real: real, class: class, softClass: class}, nil
	}
	stem := FileStem(p)
	if stem == "" {
		return itemPath{}, patcherr.Malformed(p, "an item path or path.ClassName", nil)
	}
	return itemPath{real: p, class: stem + "_C", softClass: stem}, nil
}

// componentPath is a linked component reference split into its package and
// base name.
type componentPath struct {
	pkg  string
	name string
}

// parseComponentPath accepts "dir/Name" or "dir/Name.Name_C.ext". In the
// second form the package is only the bare stem "Name", without its
// directory, and the class token loses its last two characters, which turns
// "Name_C" back into the base name.
func parseComponentPath(p string) (componentPath, error) {
	stem := FileStem(p)
	if stem == "" {
		return componentPath{}, patcherr.Malformed(p, "a component path", nil)
	}
	before, after, ok := strings.Cut(stem, ".")
	if !ok {
		return componentPath{pkg: p, name: stem}, nil
	}
	after, _, _ = strings.Cut(after, ".")
	if len(after) <= 2 || before == "" {
		return componentPath{}, patcherr.Malformed(p, "a component path of the form dir/Name.Name_C.ext", nil)
	}
	return componentPath{pkg: before, name: after[:len(after)-2]}, nil
}
