// Package typegen turns schema nodes into TypeScript type expressions.
package typegen

import (
	"fmt"
	"strings"

	"github.com/dyytojerry/lago-sub001/internal/spec"
)

// Resolver converts schema nodes into TypeScript type expressions.
//
// Qualifier is prepended to every name that lives in the shared type module
// (named schemas and unified enums); it is "Types." inside tag modules and
// empty inside the shared module itself.
type Resolver struct {
	Enums     *EnumTable
	Qualifier string
}

// Resolve returns the type expression for s. It never fails: a nil schema
// or an unrecognised primitive type resolves to any.
func (r Resolver) Resolve(s spec.Schema) string {
	switch n := s.(type) {
	case nil:
		return "any"
	case *spec.Ref:
		if n.Name == "" {
			return "any"
		}
		return r.Qualifier + TypeName(n.Name)
	case *spec.Array:
		elem := r.Resolve(n.Items)
		if needsParens(elem) {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case *spec.Enum:
		if name, ok := r.Enums.Lookup(n); ok {
			return r.Qualifier + name
		}
		return Union(n.Values)
	case *spec.Object:
		if len(n.Properties) == 0 {
			return "Record<string, any>"
		}
		return r.inlineObject(n)
	case *spec.Primitive:
		return primitive(n)
	default:
		return "any"
	}
}

func (r Resolver) inlineObject(obj *spec.Object) string {
	fields := make([]string, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		fields = append(fields, fmt.Sprintf("%s%s: %s", PropertyKey(p.Name), Optional(obj.IsRequired(p.Name)), r.Resolve(p.Schema)))
	}
	return "{ " + strings.Join(fields, "; ") + " }"
}

func primitive(p *spec.Primitive) string {
	switch p.Type {
	case "string":
		if p.Format == "binary" {
			return "Blob"
		}
		return "string"
	case "number", "integer":
		return "number"
	case "boolean":
		return "boolean"
	case "object":
		return "Record<string, any>"
	case "null":
		return "null"
	}
	return "any"
}

// Union renders enum values as a union of literal types.
func Union(values []any) string {
	if len(values) == 0 {
		return "any"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Literal(v)
	}
	return strings.Join(parts, " | ")
}

func needsParens(expr string) bool {
	if strings.HasPrefix(expr, "{") {
		return false
	}
	return strings.Contains(expr, " | ") || strings.Contains(expr, " & ")
}

// Optional returns the property marker for a field: "" when required,
// "?" otherwise.
func Optional(required bool) string {
	if required {
		return ""
	}
	return "?"
}

// TypeName maps a schema name onto a TypeScript identifier. Characters that
// cannot appear in an identifier ("dto.Product", "Page«Item»") become "_".
func TypeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// PropertyKey quotes name unless it is a valid identifier.
func PropertyKey(name string) string {
	if name == "" {
		return `""`
	}
	for i, r := range name {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		if i == 0 && !letter {
			return Literal(name)
		}
		if i > 0 && !letter && !(r >= '0' && r <= '9') {
			return Literal(name)
		}
	}
	return name
}

// DocComment renders description as a JSDoc block at the given indent.
// An empty description yields "".
func DocComment(description, indent string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	description = strings.ReplaceAll(description, "*/", "*\\/")
	lines := strings.Split(description, "\n")
	if len(lines) == 1 {
		return fmt.Sprintf("%s/** %s */\n", indent, lines[0])
	}
	var sb strings.Builder
	sb.WriteString(indent + "/**\n")
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			sb.WriteString(indent + " *\n")
			continue
		}
		fmt.Fprintf(&sb, "%s * %s\n", indent, line)
	}
	sb.WriteString(indent + " */\n")
	return sb.String()
}
