package spec

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeyOrder records the key order of every mapping in a YAML or JSON
// document, addressed by JSON pointer without the leading '#'. The root
// mapping is "", a path item is "/paths/~1pets".
type KeyOrder map[string][]string

// BuildKeyOrder indexes data. Swagger 2 definitions are also exposed under
// /components/schemas so converted documents keep their schema order.
func BuildKeyOrder(data []byte) (KeyOrder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	order := KeyOrder{}
	order.walk("", &root)

	var aliases []string
	for ptr := range order {
		if ptr == "/definitions" || strings.HasPrefix(ptr, "/definitions/") {
			aliases = append(aliases, ptr)
		}
	}
	for _, ptr := range aliases {
		alias := "/components/schemas" + strings.TrimPrefix(ptr, "/definitions")
		if _, exists := order[alias]; !exists {
			order[alias] = order[ptr]
		}
	}
	return order, nil
}

func (o KeyOrder) walk(ptr string, n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			o.walk(ptr, c)
		}
	case yaml.AliasNode:
		o.walk(ptr, n.Alias)
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			keys = append(keys, k)
			o.walk(ptr+"/"+escapePointer(k), n.Content[i+1])
		}
		o[ptr] = keys
	case yaml.SequenceNode:
		for i, c := range n.Content {
			o.walk(ptr+"/"+strconv.Itoa(i), c)
		}
	}
}

// Keys orders present as the keys appear at ptr. Keys the index does not
// know about follow in sorted order.
func (o KeyOrder) Keys(ptr string, present []string) []string {
	want := make(map[string]bool, len(present))
	for _, k := range present {
		want[k] = true
	}
	out := make([]string, 0, len(present))
	for _, k := range o[ptr] {
		if want[k] {
			out = append(out, k)
			delete(want, k)
		}
	}
	rest := make([]string, 0, len(want))
	for k := range want {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}
