package xml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// OrderedMap is the "simple form" tree from §4.6: an insertion-ordered
// key/value map built by ToOrderedMap out of a Document. Attribute keys are
// prefixed with "@", text content lives under the "#text" key, and a tag
// repeated among siblings collapses into a []*OrderedMap under that tag's
// key (see xml/dom.go's elementToMap). Insertion order is kept so Dump and
// GetPath reflect document order rather than Go's randomized map order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty OrderedMap.
func NewMap() *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// Put inserts or overwrites a key at this level, appending it to the
// insertion order the first time it is seen.
func (om *OrderedMap) Put(key string, value any) {
	if _, exists := om.values[key]; !exists {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
}

// Get returns the value stored at key in this level, or nil.
func (om *OrderedMap) Get(key string) any {
	return om.values[key]
}

// GetPath walks a "/"-separated path of keys through nested OrderedMaps,
// the path-resolution the cmd/fnxml query subcommand uses in place of an
// XPath engine (§4.6). Returns nil if any segment is missing, or if a value
// reached before the last segment is not itself an OrderedMap.
func (om *OrderedMap) GetPath(path string) any {
	parts := strings.Split(path, "/")
	var current any = om

	for _, key := range parts {
		node, ok := current.(*OrderedMap)
		if !ok {
			return nil
		}
		val, exists := node.values[key]
		if !exists {
			return nil
		}
		current = val
	}
	return current
}

// MarshalJSON emits the map as a JSON object, preserving insertion order
// (the property encoding/json's own map handling cannot give us, since it
// always sorts map[string]any keys alphabetically).
func (om *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range om.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(om.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dump renders the map as indented JSON, for cmd/fnxml query's human-readable
// output of a simple-form subtree.
func (om *OrderedMap) Dump() string {
	b, err := om.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<dump error: %v>", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return string(b)
	}
	return out.String()
}
