// Package vault assembles the in-memory vault state: sources are
// loaded and attributed, objects are validated against schemas, and
// lint rules run last, with every problem aggregated into one ordered
// issue list.
package vault

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/lint"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/project"
	"github.com/starford/othala/internal/schema"
	"github.com/starford/othala/internal/source"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/validate"
)

const defaultConcurrency = 4

// Option configures a single Build run.
type Option func(*builder)

type builder struct {
	logger      *slog.Logger
	concurrency int
	fix         bool
}

// WithLogger sets the logger used for progress reporting.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		b.logger = l
	}
}

// WithConcurrency caps how many sources load in parallel.
func WithConcurrency(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithFix lets lint rules rewrite source files to resolve their own
// findings.
func WithFix() Option {
	return func(b *builder) {
		b.fix = true
	}
}

// Build runs the full assembly pipeline and returns the resulting
// state. Stage order is fixed: schemas, then sources (loaded
// concurrently, attributed per object), then validation over all
// objects, then lint. Only a config failure upstream or a missing
// required source aborts the run; every other problem degrades to an
// issue on the returned state.
func Build(ctx context.Context, cfg *internal.Config, opts ...Option) (*State, error) {
	b := &builder{logger: slog.Default(), concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(b)
	}
	start := time.Now()

	reg, issues := schema.Load(schemaDir(cfg), schemaFiles(cfg))

	profiles := make([]project.Profile, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		profiles = append(profiles, project.Profile{
			Name:    p.Name,
			Sources: p.Sources,
			Include: p.Include,
		})
	}
	resolver := project.NewResolver(profiles)

	// Each source loads into its own slot; concatenation below keeps
	// configured order regardless of completion order.
	results := make([]*source.Result, len(cfg.Sources))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, src := range cfg.Sources {
		g.Go(func() error {
			res, err := source.Load(gCtx, source.Spec{
				ID:          src.ID,
				Root:        cfg.SourceRoot(src),
				DefaultType: src.Type,
				Required:    src.Required,
				Ignore:      src.Ignore,
			})
			if err != nil {
				return err
			}
			for _, obj := range res.Objects {
				obj.Project = resolver.Attribute(obj.SourceID, obj.RelPath)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var objects []*models.Object
	summaries := make([]models.SourceSummary, 0, len(cfg.Sources))
	for _, res := range results {
		issues = append(issues, res.Issues...)
		objects = append(objects, res.Objects...)
		summaries = append(summaries, res.Summary)
	}

	issues = append(issues, validate.Run(objects, reg, validate.Options{
		VisibilityField:   cfg.VisibilityField,
		DefaultVisibility: cfg.DefaultVisibility,
		ProjectVisibility: projectVisibility(cfg),
		WarnUnknownFields: cfg.WarnUnknownFields,
	})...)

	lintOpts := lint.Options{
		Rules:             cfg.Lint.Rules,
		BibliographyTypes: cfg.Lint.BibliographyTypes,
		CitekeyField:      cfg.Lint.CitekeyField,
	}
	if b.fix {
		lintOpts.Stores = openStores(cfg, b.logger)
	}
	issues = append(issues, lint.New(lintOpts).Run(objects, b.fix)...)

	state := &State{
		Config:    cfg,
		Schemas:   reg,
		Objects:   objects,
		Issues:    issues,
		Summaries: summaries,
		BuiltAt:   time.Now(),
		resolver:  resolver,
	}

	b.logger.Info("vault assembled",
		slog.Int("sources", len(cfg.Sources)),
		slog.Int("objects", len(objects)),
		slog.Int("issues", len(issues)),
		slog.Duration("elapsed", time.Since(start)))

	return state, nil
}

func schemaDir(cfg *internal.Config) string {
	if cfg.SchemaDir == "" {
		return ""
	}
	if filepath.IsAbs(cfg.SchemaDir) {
		return cfg.SchemaDir
	}
	return filepath.Join(cfg.BaseDir, cfg.SchemaDir)
}

func schemaFiles(cfg *internal.Config) []string {
	out := make([]string, 0, len(cfg.SchemaFiles))
	for _, f := range cfg.SchemaFiles {
		if filepath.IsAbs(f) {
			out = append(out, f)
			continue
		}
		out = append(out, filepath.Join(cfg.BaseDir, f))
	}
	return out
}

func projectVisibility(cfg *internal.Config) map[string]string {
	out := make(map[string]string)
	for _, p := range cfg.Projects {
		if p.Visibility != "" {
			out[p.Name] = p.Visibility
		}
	}
	return out
}

// openStores builds write access for fixes. Sources whose root cannot
// be opened are left out; their fixes fail per object instead.
func openStores(cfg *internal.Config, logger *slog.Logger) map[string]storage.Provider {
	stores := make(map[string]storage.Provider, len(cfg.Sources))
	for _, src := range cfg.Sources {
		store, err := storage.NewFS(cfg.SourceRoot(src))
		if err != nil {
			logger.Warn("source not writable for fixes",
				slog.String("source", src.ID),
				slog.String("error", err.Error()))
			continue
		}
		stores[src.ID] = store
	}
	return stores
}
