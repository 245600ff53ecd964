// Package partition routes the operations of a document into per-project
// bundles by tag.
//
// By convention the first tag of an operation is its functional domain
// ("Products") and the second tag names the project that owns it ("App").
// An operation belongs to a project when it is owned by that project or when
// its domain is on the project's allow-list.
package partition

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dyytojerry/lago-sub001/internal/spec"
)

var (
	ErrUnknownProject = errors.New("unknown project")
	ErrNoAllowList    = errors.New("project has no tag allow-list")
)

// DefaultTag groups operations that declare no tags at all.
const DefaultTag = "Default"

// Project is the static configuration of one consuming project.
type Project struct {
	Name string
	// Tags is the allow-list of first tags routed into this project.
	Tags []string
	// Out is the output directory, relative to the working directory.
	Out string
}

// Table holds the configured projects keyed by selector.
type Table map[string]Project

// DefaultTable returns the built-in projects: the consumer app and the
// operation back-office.
func DefaultTable() Table {
	return Table{
		"app": {
			Name: "app",
			Tags: []string{"Auth", "Users", "Products", "Categories", "Orders", "Cart", "Favorites", "Reviews", "Upload"},
			Out:  DefaultOut("app"),
		},
		"operation": {
			Name: "operation",
			Tags: []string{"Auth", "AdminUsers", "AdminProducts", "AdminOrders", "Dashboard", "Upload"},
			Out:  DefaultOut("operation"),
		},
	}
}

// DefaultOut is the conventional output directory of a project.
func DefaultOut(project string) string {
	return "apps/" + project + "/src/api/generated"
}

// Names returns the configured selectors in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the project for selector, failing when it is unknown or
// has no allow-list.
func (t Table) Lookup(selector string) (Project, error) {
	p, ok := t[selector]
	if !ok {
		return Project{}, fmt.Errorf("%w %q (configured: %s)", ErrUnknownProject, selector, strings.Join(t.Names(), ", "))
	}
	if len(p.Tags) == 0 {
		return Project{}, fmt.Errorf("%w: %q", ErrNoAllowList, selector)
	}
	if p.Name == "" {
		p.Name = selector
	}
	if p.Out == "" {
		p.Out = DefaultOut(selector)
	}
	return p, nil
}

// OwnerTag is the second-tag value that marks an operation as owned by
// project: "operation" becomes "Operation".
func OwnerTag(project string) string {
	return cases.Title(language.Und, cases.NoLower).String(project)
}

// Partition keeps the operations that belong to project, in document order.
func Partition(ops []spec.Operation, project string, table Table) ([]spec.Operation, error) {
	p, err := table.Lookup(project)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(p.Tags))
	for _, tag := range p.Tags {
		allowed[tag] = true
	}
	owner := OwnerTag(project)

	var out []spec.Operation
	for _, op := range ops {
		if Includes(op, owner, allowed) {
			out = append(out, op)
		}
	}
	return out, nil
}

// Includes reports whether op is owned by owner or its domain is allowed.
// Untagged operations have the domain DefaultTag.
func Includes(op spec.Operation, owner string, allowed map[string]bool) bool {
	if len(op.Tags) == 0 {
		return allowed[DefaultTag]
	}
	if len(op.Tags) > 1 && op.Tags[1] == owner {
		return true
	}
	return allowed[op.Tags[0]]
}

// TagGroup is the set of operations sharing a first tag.
type TagGroup struct {
	Tag        string
	Operations []spec.Operation
}

// GroupByTag groups ops by first tag in order of first appearance.
// Untagged operations fall into DefaultTag.
func GroupByTag(ops []spec.Operation) []TagGroup {
	var groups []TagGroup
	index := map[string]int{}
	for _, op := range ops {
		tag := DefaultTag
		if len(op.Tags) > 0 {
			tag = op.Tags[0]
		}
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, TagGroup{Tag: tag})
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}
	return groups
}
