package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dyytojerry/lago-sub001/internal/emitter/tsemitter"
	"github.com/dyytojerry/lago-sub001/internal/naming"
	"github.com/dyytojerry/lago-sub001/internal/partition"
	genspec "github.com/dyytojerry/lago-sub001/internal/spec"
	"github.com/dyytojerry/lago-sub001/internal/typegen"
)

// DefaultInput is the conventional location of the description document.
const DefaultInput = "openapi/openapi.json"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input         string
	Projects      []string // selected project selectors, in command-line order
	All           bool
	Out           string // only valid with a single project
	RootMarker    string
	RequestModule string
	QueryModule   string
	UmbrellaScope string
	Table         partition.Table
	ConfigPath    string
	DryRun        bool
	Verbose       bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Input:         DefaultInput,
		RootMarker:    naming.DefaultRootMarker,
		RequestModule: tsemitter.DefaultRequestModule,
		QueryModule:   tsemitter.DefaultQueryModule,
		UmbrellaScope: tsemitter.DefaultUmbrellaScope,
		Table:         partition.DefaultTable(),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	}
}

func (c *GenerateConfig) logf(format string, args ...any) {
	if !c.Verbose || c.stderr == nil {
		return
	}
	fmt.Fprintf(c.stderr, "apigen: "+format+"\n", args...)
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [project...]",
		Short: "Generate typed API bindings for one or more projects",
		Long: "Generate TypeScript request functions, query/mutation wrappers and shared types " +
			"for the selected projects from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  apigen generate app
  apigen generate operation --input openapi/openapi.yaml --out ./src/api/generated
  apigen --config apigen.yaml generate --all --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document (default "+DefaultInput+")")
	flags.String("out", "", "Output directory; only with a single project")
	flags.Bool("all", false, "Generate every configured project")
	flags.String("root-marker", "", "Leading path segment treated as the API root (default "+naming.DefaultRootMarker+")")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	cfg.Projects = sanitizeTags(args)
	if cfg.All && len(cfg.Projects) > 0 {
		return nil, newUsageError("generate: --all cannot be combined with project selectors")
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadBaseConfig merges built-in defaults with the config file named by the
// persistent --config flag.
func loadBaseConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()
	cfg.stdout = cmd.OutOrStdout()
	cfg.stderr = cmd.ErrOrStderr()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}
	if flags := cmd.Flags(); flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return nil, err
		}
		cfg.Verbose = value
	}
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("all") {
		value, err := flags.GetBool("all")
		if err != nil {
			return err
		}
		cfg.All = value
	}
	if flags.Changed("root-marker") {
		value, err := flags.GetString("root-marker")
		if err != nil {
			return err
		}
		cfg.RootMarker = strings.TrimSpace(value)
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.RootMarker = strings.Trim(strings.TrimSpace(c.RootMarker), "/")
	c.RequestModule = strings.TrimSpace(c.RequestModule)
	c.QueryModule = strings.TrimSpace(c.QueryModule)
	c.UmbrellaScope = strings.TrimSpace(c.UmbrellaScope)
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.All && len(c.Projects) == 0 {
		c.Projects = c.Table.Names()
	}
}

func (c *GenerateConfig) validate() error {
	if len(c.Projects) == 0 {
		return newUsageError(fmt.Sprintf("generate: a project selector is required (configured: %s)", strings.Join(c.Table.Names(), ", ")))
	}
	for _, p := range c.Projects {
		if _, err := c.Table.Lookup(p); err != nil {
			return newUsageError(fmt.Sprintf("generate: %v", err))
		}
	}
	if c.Out != "" && len(c.Projects) > 1 {
		return newUsageError("generate: --out can only be used with a single project")
	}
	return nil
}

func (c *GenerateConfig) emitterOptions(project string, enums *typegen.EnumTable) tsemitter.Options {
	return tsemitter.Options{
		Project:       project,
		Table:         c.Table,
		OutDir:        c.Out,
		RootMarker:    c.RootMarker,
		RequestModule: c.RequestModule,
		QueryModule:   c.QueryModule,
		UmbrellaScope: c.UmbrellaScope,
		Enums:         enums,
		DryRun:        c.DryRun,
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1) Load the description document (file or http/https URL), validated and converted
	var warnings io.Writer
	if cfg.Verbose {
		warnings = cfg.stderr
	}
	cfg.logf("loading %s", cfg.Input)
	src, err := genspec.Load(ctx, cfg.Input, genspec.WithWarnings(warnings))
	if err != nil {
		// Loader errors carry location and pointer; surface both.
		var se *genspec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return newUsageError(msg)
		}
		return err
	}
	if src.Converted {
		cfg.logf("converted Swagger 2.0 document to OpenAPI 3")
	}

	// 2) Build the ordered document model and the shared enum table
	doc, err := genspec.BuildDocument(ctx, src)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	enums := typegen.BuildEnumTable(doc.Schemas)
	cfg.logf("%d schemas, %d operations, %d unified enums", len(doc.Schemas), len(doc.Operations), enums.Len())

	// 3) Render every project; nothing is written unless all of them succeed
	rendered := make([][]tsemitter.File, len(cfg.Projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, project := range cfg.Projects {
		i, project := i, project
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files, err := tsemitter.Render(doc, cfg.emitterOptions(project, enums))
			if err != nil {
				return fmt.Errorf("render %s: %w", project, err)
			}
			rendered[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, partition.ErrUnknownProject) || errors.Is(err, partition.ErrNoAllowList) {
			return newUsageError(fmt.Sprintf("generate: %v", err))
		}
		return err
	}

	// 4) Write (or plan) sequentially in selector order
	for i, project := range cfg.Projects {
		opts := cfg.emitterOptions(project, enums)
		outDir, err := tsemitter.OutDir(opts)
		if err != nil {
			return err
		}
		absOut := outDir
		if ap, err := filepath.Abs(outDir); err == nil {
			absOut = ap
		}
		res, err := tsemitter.Apply(ctx, rendered[i], opts)
		if err != nil {
			return wrapOutputError(err, absOut)
		}
		if cfg.DryRun {
			paths := make([]string, 0, len(res.Planned))
			for _, p := range res.Planned {
				paths = append(paths, p.RelPath)
			}
			printPlan(cfg.stdout, absOut, len(res.Planned), paths)
			continue
		}
		for _, rel := range res.Written {
			cfg.logf("%s: wrote %s", project, rel)
		}
		for _, rel := range res.Removed {
			cfg.logf("%s: removed stale %s", project, rel)
		}
		cfg.logf("%s: %d written, %d unchanged, %d removed in %s", project, len(res.Written), len(res.Unchanged), len(res.Removed), absOut)
	}

	return nil
}

func printPlan(w io.Writer, outDir string, count int, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "out dir") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or fix the project's out directory in the config file.", outDir, msg))
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		var ferr error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, ferr = valueAsString(value)
		case "rootmarker":
			cfg.RootMarker, ferr = valueAsString(value)
		case "requestmodule":
			cfg.RequestModule, ferr = valueAsString(value)
		case "querymodule":
			cfg.QueryModule, ferr = valueAsString(value)
		case "umbrellascope":
			cfg.UmbrellaScope, ferr = valueAsString(value)
		case "dryrun":
			cfg.DryRun, ferr = valueAsBool(value)
		case "verbose":
			cfg.Verbose, ferr = valueAsBool(value)
		case "projects":
			ferr = applyProjects(cfg.Table, value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if ferr != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, ferr))
		}
	}

	return nil
}

// applyProjects merges the projects section into table. A listed project
// replaces the fields it sets and keeps the built-in values of the others.
func applyProjects(table partition.Table, v any) error {
	if v == nil {
		return nil
	}
	entries, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a mapping of project name to settings, got %T", v)
	}
	for name, raw := range entries {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("empty project name")
		}
		p := table[name]
		p.Name = name
		if raw != nil {
			settings, ok := raw.(map[string]any)
			if !ok {
				return fmt.Errorf("project %q: expected a mapping, got %T", name, raw)
			}
			for key, value := range settings {
				switch normalizeKey(key) {
				case "tags":
					tags, err := valueAsStringSlice(value)
					if err != nil {
						return fmt.Errorf("project %q tags: %w", name, err)
					}
					p.Tags = sanitizeTags(tags)
				case "out":
					out, err := valueAsString(value)
					if err != nil {
						return fmt.Errorf("project %q out: %w", name, err)
					}
					p.Out = out
				default:
					return fmt.Errorf("project %q: unknown field %q", name, key)
				}
			}
		}
		if p.Out == "" {
			p.Out = partition.DefaultOut(name)
		}
		table[name] = p
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
