package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/modintegrator/internal/patcherr"
)

// Legacy item list targets. A mod that lists MasterItemList entries without
// an explicit BaseGameInitialKnownItemList entry gets its items duplicated
// into the latter.
const (
	MasterItemList               = "/Game/Items/ItemTypes/MasterItemList"
	BaseGameInitialKnownItemList = "/Game/Items/ItemTypes/BaseGameInitialKnownItemList"
)

// Fragment is one mod's raw payload for one strategy.
type Fragment struct {
	ModID string
	Data  json.RawMessage
}

// TargetList is an ordered list of entries addressed to one target.
type TargetList struct {
	Target string   `json:"target"`
	Items  []string `json:"items"`
}

// NamedList is an ordered list of item paths for one list property.
type NamedList struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// ItemTarget holds every list property patch addressed to one asset.
type ItemTarget struct {
	Target string      `json:"target"`
	Lists  []NamedList `json:"lists"`
}

// Lookup returns the list named name.
func (t *ItemTarget) Lookup(name string) (*NamedList, bool) {
	for i := range t.Lists {
		if t.Lists[i].Name == name {
			return &t.Lists[i], true
		}
	}
	return nil, false
}

func (t *ItemTarget) list(name string) *NamedList {
	if l, ok := t.Lookup(name); ok {
		return l
	}
	t.Lists = append(t.Lists, NamedList{Name: name})
	return &t.Lists[len(t.Lists)-1]
}

// MergeList concatenates flat string lists. key names the patch target in
// MalformedPatch errors.
func MergeList(key string, fragments []Fragment) ([]string, error) {
	var (
		out  []string
		errs []error
	)
	for _, f := range fragments {
		items, err := decodeStrings(f.Data)
		if err != nil {
			errs = append(errs, malformed(key, f.ModID, SchemaStringList, err))
			continue
		}
		out = append(out, items...)
	}
	return out, errors.Join(errs...)
}

// MergeRecords concatenates lists of objects, decoding each fragment into T
// after it satisfies schema.
func MergeRecords[T any](key string, schema Schema, fragments []Fragment) ([]T, error) {
	var (
		out  []T
		errs []error
	)
	for _, f := range fragments {
		if err := Validate(schema, f.Data); err != nil {
			errs = append(errs, malformed(key, f.ModID, schema, err))
			continue
		}
		var records []T
		if err := json.Unmarshal(normalize(f.Data), &records); err != nil {
			errs = append(errs, malformed(key, f.ModID, schema, err))
			continue
		}
		out = append(out, records...)
	}
	return out, errors.Join(errs...)
}

// MergeTargetLists merges objects of the form {"<target>": ["entry", ...]}.
// A malformed entry only drops that target from that fragment.
func MergeTargetLists(key string, fragments []Fragment) ([]TargetList, error) {
	var (
		out  []TargetList
		errs []error
	)
	index := make(map[string]int)
	for _, f := range fragments {
		members, err := decodeObject(f.Data)
		if err != nil {
			errs = append(errs, malformed(key, f.ModID, SchemaTargetLists, err))
			continue
		}
		for _, m := range members {
			items, err := decodeStrings(m.Value)
			if err != nil {
				errs = append(errs, malformed(m.Key, f.ModID, SchemaStringList, err))
				continue
			}
			i, ok := index[m.Key]
			if !ok {
				out = append(out, TargetList{Target: m.Key})
				i = len(out) - 1
				index[m.Key] = i
			}
			out[i].Items = append(out[i].Items, items...)
		}
	}
	return out, errors.Join(errs...)
}

// MergeItemLists merges objects of the form
// {"<asset>": {"<list property>": ["item", ...]}} and applies the legacy
// MasterItemList duplication: if any fragment names MasterItemList without
// naming BaseGameInitialKnownItemList, every list of the fully merged
// MasterItemList entry is prepended to the matching BaseGameInitialKnownItemList
// list.
func MergeItemLists(key string, fragments []Fragment) ([]ItemTarget, error) {
	var (
		out       []ItemTarget
		errs      []error
		duplicate bool
	)
	index := make(map[string]int)
	target := func(name string) *ItemTarget {
		i, ok := index[name]
		if !ok {
			out = append(out, ItemTarget{Target: name})
			i = len(out) - 1
			index[name] = i
		}
		return &out[i]
	}

	for _, f := range fragments {
		members, err := decodeObject(f.Data)
		if err != nil {
			errs = append(errs, malformed(key, f.ModID, SchemaTargetLists, err))
			continue
		}

		explicit := false
		for _, m := range members {
			if m.Key == BaseGameInitialKnownItemList {
				explicit = true
			}
		}

		for _, m := range members {
			if err := Validate(SchemaItemLists, m.Value); err != nil {
				errs = append(errs, malformed(m.Key, f.ModID, SchemaItemLists, err))
				continue
			}
			lists, err := decodeObject(m.Value)
			if err != nil {
				errs = append(errs, malformed(m.Key, f.ModID, SchemaItemLists, err))
				continue
			}
			t := target(m.Key)
			for _, l := range lists {
				items, err := decodeStrings(l.Value)
				if err != nil {
					errs = append(errs, malformed(m.Key, f.ModID, SchemaItemLists, err))
					continue
				}
				named := t.list(l.Key)
				named.Items = append(named.Items, items...)
			}
			if m.Key == MasterItemList && !explicit {
				duplicate = true
			}
		}
	}

	if duplicate {
		master := out[index[MasterItemList]]
		bg := target(BaseGameInitialKnownItemList)
		for _, l := range master.Lists {
			named := bg.list(l.Name)
			named.Items = append(append([]string(nil), l.Items...), named.Items...)
		}
	}

	return out, errors.Join(errs...)
}

func malformed(target, modID string, schema Schema, cause error) error {
	err := patcherr.Malformed(target, schema.Expected(), cause)
	if modID != "" {
		err.Details["mod"] = modID
	}
	return err
}

func decodeStrings(data []byte) ([]string, error) {
	if err := Validate(SchemaStringList, data); err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = norm.NFC.String(items[i])
	}
	return items, nil
}

// member is one key/value pair of a JSON object, in document order.
type member struct {
	Key   string
	Value json.RawMessage
}

var errNotObject = errors.New("not a JSON object")

// decodeObject decodes a JSON object preserving key order. Keys are
// NFC-normalized.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{Key: norm.NFC.String(key), Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// normalize NFC-normalizes a JSON document. NFC never alters the ASCII
// structural characters, so the result stays valid JSON.
func normalize(data []byte) []byte {
	return norm.NFC.Bytes(data)
}
