// Package naming derives identifiers for generated code from operation
// paths and methods.
//
// Identifiers are allocated from a Pool. A pool belongs to exactly one
// generation pass (types, functions or wrappers of one tag group) and is
// thrown away afterwards, so a name taken in one pass never affects another.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dyytojerry/lago-sub001/internal/spec"
)

// DefaultRootMarker is the leading path segment dropped from every path.
const DefaultRootMarker = "api"

// Pool is the set of identifiers allocated within one pass.
type Pool struct {
	root string
	used map[string]struct{}
}

// NewPool returns an empty pool. rootMarker is the path segment treated as
// the API root; empty means DefaultRootMarker.
func NewPool(rootMarker string) *Pool {
	if strings.TrimSpace(rootMarker) == "" {
		rootMarker = DefaultRootMarker
	}
	return &Pool{root: rootMarker, used: make(map[string]struct{})}
}

// Has reports whether name was already allocated.
func (p *Pool) Has(name string) bool {
	_, ok := p.used[name]
	return ok
}

// Allocate returns the identifier for (path, method) and records it.
// When the base name is taken the method suffix is appended; if that is
// taken as well a counter keeps the pool collision-free.
func (p *Pool) Allocate(path string, method spec.HttpMethod) string {
	base := BaseName(path, method, p.root)
	if !p.Has(base) {
		p.used[base] = struct{}{}
		return base
	}
	return p.Reserve(base + MethodSuffix(method))
}

// Reserve records name, or the first free name{N} for N >= 2.
func (p *Pool) Reserve(name string) string {
	candidate := name
	for n := 2; p.Has(candidate); n++ {
		candidate = name + strconv.Itoa(n)
	}
	p.used[candidate] = struct{}{}
	return candidate
}

// BaseName derives the collision-free candidate for an operation:
// path segments minus the API root and {params}, the first segment
// singularized when more follow, camel-joined, and singularized again for
// non-GET methods.
func BaseName(path string, method spec.HttpMethod, rootMarker string) string {
	segs := Segments(path, rootMarker)
	if len(segs) > 1 {
		segs[0] = Singularize(segs[0])
	}
	name := camelJoin(segs)
	if method != spec.GET {
		name = Singularize(name)
	}
	if name == "" {
		return "root"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	if reserved[name] {
		name += "_"
	}
	return name
}

// Segments returns the literal segments of path without the root marker
// and without path parameters. A placeholder inside a segment
// ("{name}.json") is dropped and the literal rest kept.
func Segments(path, rootMarker string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if len(out) == 0 && seg == rootMarker {
			continue
		}
		lit := strings.Trim(placeholder.ReplaceAllString(seg, "-"), "-")
		if !strings.ContainsFunc(lit, isAlnum) {
			continue
		}
		out = append(out, lit)
	}
	return out
}

// placeholder matches a {name} path template variable anywhere in a segment.
var placeholder = regexp.MustCompile(`\{([^{}/]+)\}`)

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// PathParamNames lists the {name} placeholders of path in order.
func PathParamNames(path string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(path, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// PathTemplate splits path into alternating literal text and placeholder
// names: literals[i] precedes names[i], and the last literal closes the path.
func PathTemplate(path string) (literals, names []string) {
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(path, -1) {
		literals = append(literals, path[last:m[0]])
		names = append(names, strings.TrimSpace(path[m[2]:m[3]]))
		last = m[1]
	}
	return append(literals, path[last:]), names
}

// MethodSuffix is the role suffix applied on a base-name collision.
func MethodSuffix(method spec.HttpMethod) string {
	switch method {
	case spec.GET:
		return "Detail"
	case spec.POST:
		return "Create"
	case spec.PUT:
		return "Update"
	case spec.PATCH:
		return "Patch"
	case spec.DELETE:
		return "Delete"
	}
	return Capitalize(strings.ToLower(string(method)))
}

// Singularize strips a trailing plural suffix from a word or camel name.
func Singularize(s string) string {
	lower := strings.ToLower(s)
	switch {
	case len(s) > 3 && strings.HasSuffix(lower, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return s[:len(s)-2]
	case len(s) > 1 && strings.HasSuffix(lower, "s") &&
		!strings.HasSuffix(lower, "ss") && !strings.HasSuffix(lower, "us") && !strings.HasSuffix(lower, "is"):
		return s[:len(s)-1]
	}
	return s
}

// Capitalize upper-cases the first letter of an identifier.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Uncapitalize lower-cases the first letter of an identifier.
func Uncapitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Ident turns free text such as a tag ("Admin Users") into a camelCase
// identifier ("adminUsers").
func Ident(s string) string {
	name := camelJoin([]string{s})
	if name == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	if reserved[name] {
		name += "_"
	}
	return name
}

// Words splits a camelCase identifier into lower-case words.
func Words(ident string) []string {
	var words []string
	var cur []rune
	for _, r := range ident {
		if unicode.IsUpper(r) && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		if r == '_' {
			continue
		}
		cur = append(cur, unicode.ToLower(r))
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

// camelJoin splits every segment on non-alphanumerics and joins the parts
// as lowerCamelCase. Existing inner capitals are kept.
func camelJoin(segs []string) string {
	var b strings.Builder
	for _, seg := range segs {
		parts := strings.FieldsFunc(seg, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, part := range parts {
			if b.Len() == 0 {
				b.WriteString(Uncapitalize(part))
				continue
			}
			b.WriteString(Capitalize(part))
		}
	}
	return b.String()
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "let": true, "static": true, "yield": true, "await": true,
}
