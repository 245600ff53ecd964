// Package tsemitter renders the TypeScript API surface of one project:
// a shared types module, one module per tag group and an index module.
package tsemitter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyytojerry/lago-sub001/internal/partition"
	"github.com/dyytojerry/lago-sub001/internal/spec"
	"github.com/dyytojerry/lago-sub001/internal/typegen"
)

// Header marks a file as generated. Stale files are only removed when they
// start with it.
const Header = "// Code generated by apigen. DO NOT EDIT."

const (
	DefaultRequestModule = "@/api/request"
	DefaultQueryModule   = "@tanstack/react-query"
	DefaultUmbrellaScope = "all"
)

// Options controls how a project is rendered and written.
type Options struct {
	Project string          // required; project selector
	Table   partition.Table // project configuration; DefaultTable when nil
	OutDir  string          // overrides the project's configured output directory

	RootMarker    string // API root path segment; "api" when empty
	RequestModule string // module exporting request<T>(config)
	QueryModule   string // module exporting useQuery/useMutation/useQueryClient
	UmbrellaScope string // query key invalidated by every mutation

	// Enums is the document's enum table. Built on demand when nil; callers
	// rendering several projects build it once and share it.
	Enums *typegen.EnumTable

	DryRun bool // don't write, only plan
}

func (o Options) withDefaults() Options {
	if o.Table == nil {
		o.Table = partition.DefaultTable()
	}
	if strings.TrimSpace(o.RequestModule) == "" {
		o.RequestModule = DefaultRequestModule
	}
	if strings.TrimSpace(o.QueryModule) == "" {
		o.QueryModule = DefaultQueryModule
	}
	if strings.TrimSpace(o.UmbrellaScope) == "" {
		o.UmbrellaScope = DefaultUmbrellaScope
	}
	return o
}

// File is one rendered output file.
type File struct {
	RelPath string
	Content []byte
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result reports what a run planned and, unless it was a dry run, what
// changed on disk.
type Result struct {
	Project   string
	OutDir    string
	Planned   []PlannedFile
	Written   []string
	Unchanged []string
	Removed   []string
}

// Emit renders the project and writes it to its output directory.
func Emit(ctx context.Context, doc *spec.Document, opts Options) (*Result, error) {
	files, err := Render(doc, opts)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, files, opts)
}

// Render produces the project's files in deterministic order: types.ts,
// the tag modules in group order, then index.ts. It touches no files.
func Render(doc *spec.Document, opts Options) ([]File, error) {
	units, err := RenderUnits(doc, opts)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(units))
	for _, u := range units {
		files = append(files, File{RelPath: u.File, Content: u.Bytes()})
	}
	return files, nil
}

// OutDir returns the directory the project is written to.
func OutDir(opts Options) (string, error) {
	if strings.TrimSpace(opts.OutDir) != "" {
		return opts.OutDir, nil
	}
	opts = opts.withDefaults()
	p, err := opts.Table.Lookup(opts.Project)
	if err != nil {
		return "", err
	}
	return p.Out, nil
}

// Apply plans files and, unless opts.DryRun is set, writes them.
func Apply(ctx context.Context, files []File, opts Options) (*Result, error) {
	outDir, err := OutDir(opts)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string][]byte, len(files))
	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel := filepath.ToSlash(f.RelPath)
		if _, dup := byPath[rel]; dup {
			return nil, fmt.Errorf("tsemitter: duplicate output file %s", rel)
		}
		byPath[rel] = f.Content
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	res := &Result{Project: opts.Project, OutDir: outDir}
	for _, rel := range rels {
		res.Planned = append(res.Planned, PlannedFile{RelPath: rel, Size: len(byPath[rel]), Mode: 0o644})
	}
	if opts.DryRun {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeFiles(outDir, rels, byPath, res); err != nil {
		return nil, err
	}
	return res, nil
}

func writeFiles(outDir string, rels []string, files map[string][]byte, res *Result) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for _, rel := range rels {
		p := filepath.Join(abs, filepath.FromSlash(rel))
		content := files[rel]
		if old, err := os.ReadFile(p); err == nil && bytes.Equal(old, content) {
			res.Unchanged = append(res.Unchanged, rel)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
		if err != nil {
			return fmt.Errorf("create temp %s: %w", rel, err)
		}
		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("close temp %s: %w", rel, err)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("chmod %s: %w", rel, err)
		}
		if err := os.Rename(tmp.Name(), p); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("rename %s: %w", rel, err)
		}
		res.Written = append(res.Written, rel)
	}
	removed, err := removeStale(abs, files)
	if err != nil {
		return err
	}
	res.Removed = removed
	return nil
}

// removeStale deletes generated .ts files in dir that are not part of keep.
// Files without the generated header are never touched.
func removeStale(dir string, keep map[string][]byte) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read out dir: %w", err)
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".ts") {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			return removed, fmt.Errorf("read %s: %w", name, err)
		}
		if !bytes.HasPrefix(data, []byte(Header)) {
			continue
		}
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
