package typegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyytojerry/lago-sub001/internal/naming"
	"github.com/dyytojerry/lago-sub001/internal/spec"
)

// EnumEntry is one unified enumeration.
type EnumEntry struct {
	Name      string
	Signature string
	Values    []any
	// Owner and Property name the declaration that won the name.
	Owner    string
	Property string
}

// EnumTable maps enum signatures to generated type names. It is built
// once per document and read-only afterwards.
type EnumTable struct {
	bySig   map[string]int
	entries []EnumEntry
}

// BuildEnumTable scans the direct properties of every named schema in
// document order. The first declaration of a value list wins the name
// {Schema}{Property}; later declarations with the same signature reuse it.
func BuildEnumTable(schemas []spec.NamedSchema) *EnumTable {
	t := &EnumTable{bySig: make(map[string]int)}
	taken := make(map[string]bool, len(schemas))
	for _, ns := range schemas {
		taken[TypeName(ns.Name)] = true
	}
	for _, ns := range schemas {
		obj, ok := ns.Schema.(*spec.Object)
		if !ok {
			continue
		}
		for _, prop := range obj.Properties {
			enum, ok := prop.Schema.(*spec.Enum)
			if !ok {
				continue
			}
			sig := Signature(enum)
			if _, seen := t.bySig[sig]; seen {
				continue
			}
			name := uniqueName(TypeName(ns.Name)+naming.Capitalize(naming.Ident(prop.Name)), taken)
			taken[name] = true
			t.bySig[sig] = len(t.entries)
			t.entries = append(t.entries, EnumEntry{
				Name:      name,
				Signature: sig,
				Values:    enum.Values,
				Owner:     ns.Name,
				Property:  prop.Name,
			})
		}
	}
	return t
}

func uniqueName(name string, taken map[string]bool) string {
	candidate := name
	for n := 2; taken[candidate]; n++ {
		candidate = name + strconv.Itoa(n)
	}
	return candidate
}

// Lookup returns the generated name for an enum with the same signature.
func (t *EnumTable) Lookup(e *spec.Enum) (string, bool) {
	if t == nil || e == nil {
		return "", false
	}
	i, ok := t.bySig[Signature(e)]
	if !ok {
		return "", false
	}
	return t.entries[i].Name, true
}

// Entries returns the unified enums in discovery order.
func (t *EnumTable) Entries() []EnumEntry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Len returns the number of unified enums.
func (t *EnumTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Signature is the canonical key of an enum: its literals, JSON-encoded and
// joined in declaration order. The order matters: [a b] and [b a] are
// different enums.
func Signature(e *spec.Enum) string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = Literal(v)
	}
	return strings.Join(parts, ",")
}

// Literal renders an enum value as a TypeScript literal type.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return strconv.Quote(fmt.Sprint(val))
		}
		return string(b)
	}
}

// quote renders s as a JSON string without HTML escaping, which is also a
// valid TypeScript string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
