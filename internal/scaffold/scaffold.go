package scaffold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/materialize"
	"github.com/woud420/kickstart-sub000/internal/registry"
	"github.com/woud420/kickstart-sub000/internal/render"
)

// DefaultParallelism is the number of components generated at once when
// Options.Parallelism is unset.
const DefaultParallelism = 4

// Options configures a Generator.
type Options struct {
	BaseDir     string // relative roots resolve against it; empty means the working directory
	Force       bool   // overwrite colliding files in non-empty roots
	Parallelism int    // concurrent non-monorepo components
	Logger      *slog.Logger
	Writer      *materialize.Writer

	// Owned lists extra paths that never make a root count as non-empty,
	// e.g. the manifest file that drives the run.
	Owned []string
}

// Generator runs component requests against one registry.
type Generator struct {
	reg    *registry.Registry
	opts   Options
	logger *slog.Logger
	writer *materialize.Writer
}

// New returns a Generator backed by reg.
func New(reg *registry.Registry, opts Options) *Generator {
	g := &Generator{reg: reg, opts: opts, logger: opts.Logger, writer: opts.Writer}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.writer == nil {
		g.writer = materialize.NewWriter(materialize.WithLogger(g.logger))
	}
	if g.opts.Parallelism < 1 {
		g.opts.Parallelism = DefaultParallelism
	}
	return g
}

// Generate runs a single request.
func (g *Generator) Generate(ctx context.Context, req component.Request) (*Summary, error) {
	return g.Run(ctx, []component.Request{req})
}

// Run generates every request and returns a summary covering all of them.
// Duplicate roots, or roots nested anywhere but inside a monorepo, fail the
// whole run with a ValidationError before anything is written. Component
// failures are reported in the summary, never as Run's error.
func (g *Generator) Run(ctx context.Context, reqs []component.Request) (*Summary, error) {
	roots, err := g.planRoots(reqs)
	if err != nil {
		return nil, err
	}

	var order, monorepos []int
	for i, r := range reqs {
		if r.Kind == component.KindMonorepo {
			monorepos = append(monorepos, i)
			continue
		}
		order = append(order, i)
	}
	order = append(order, monorepos...)

	g.logger.Info("generation started", "components", len(reqs), "parallelism", g.opts.Parallelism)

	// slots are indexed by position in order, each written by one goroutine
	slots := make([]ComponentResult, len(order))
	siblings := len(order) - len(monorepos)

	var eg errgroup.Group
	eg.SetLimit(g.opts.Parallelism)
	for slot := 0; slot < siblings; slot++ {
		i := order[slot]
		eg.Go(func() error {
			slots[slot] = g.generate(ctx, reqs[i], roots[i], nil, nil)
			return nil
		})
	}
	_ = eg.Wait()

	done := slots[:siblings]
	for slot := siblings; slot < len(order); slot++ {
		i := order[slot]
		if failed := failedLabels(done); len(failed) > 0 {
			slots[slot] = ComponentResult{
				Request: reqs[i],
				Root:    roots[i],
				Err: errs.New(errs.KindDependencyFailed, "scaffold.Run",
					"%s not generated: sibling components failed: %s",
					reqs[i].Label(), strings.Join(failed, ", ")),
			}
			g.logger.Error("component skipped", "component", reqs[i].Label(), "error", slots[slot].Err)
			continue
		}
		owned := append(otherRoots(roots, i), g.opts.Owned...)
		slots[slot] = g.generate(ctx, reqs[i], roots[i], done, owned)
	}

	s := &Summary{Components: slots}
	g.logger.Info("generation finished",
		"succeeded", len(s.Succeeded()),
		"failed", len(s.Failed()))
	return s, nil
}

// generate runs the pipeline for one request. siblings holds the results
// of components generated before it, owned the roots it must not treat as
// conflicting content.
func (g *Generator) generate(ctx context.Context, req component.Request, root string, siblings []ComponentResult, owned []string) ComponentResult {
	res := ComponentResult{Request: req, Root: root}
	log := g.logger.With("component", req.Label(), "root", root)

	if err := ctx.Err(); err != nil {
		res.Err = errs.Wrap(errs.KindCanceled, "scaffold.Generate", err, "%s not started", req.Label())
		log.Warn("component canceled")
		return res
	}

	log.Info("generating component")
	if err := g.pipeline(&res, siblings, owned); err != nil {
		res.Err = err
		log.Error("component failed", "error", err)
		return res
	}
	log.Info("component generated", "language", res.Language, "files", len(res.Files))
	return res
}

// pipeline fills res step by step so a failure still reports how far the
// component got.
func (g *Generator) pipeline(res *ComponentResult, siblings []ComponentResult, owned []string) error {
	req := res.Request
	if err := req.Validate(); err != nil {
		return err
	}

	strat := strategyFor(req.Kind)
	res.Name = strat.name(req, res.Root)
	res.Language = g.reg.ResolveLanguage(req.Kind, req.Language)

	resolution, err := g.reg.Resolve(req.Kind, res.Language, req.Extensions)
	if err != nil {
		return err
	}
	langInfo, _ := g.reg.Language(res.Language)

	extras, err := strat.extras(strategyInput{
		req:      req,
		name:     res.Name,
		root:     res.Root,
		language: langInfo,
		siblings: siblings,
	})
	if err != nil {
		return err
	}

	res.Context, err = render.BuildContext(render.ContextInput{
		Kind:       req.Kind,
		Name:       res.Name,
		Root:       req.Root,
		Language:   res.Language,
		LangInfo:   langInfo,
		Requested:  resolution.Extensions,
		Known:      g.reg.Extensions(),
		Attributes: req.Attributes,
		Extras:     extras,
	})
	if err != nil {
		return err
	}

	files, err := renderFiles(resolution.Descriptors, res.Context)
	if err != nil {
		return err
	}

	res.Files, err = g.writer.Write(res.Root, files, materialize.Options{Force: g.opts.Force, Owned: owned})
	return err
}

// renderFiles renders every output path and body, then merges again on
// the rendered paths: two patterns may render to the same file.
func renderFiles(ds []registry.Descriptor, ctx render.Context) ([]materialize.File, error) {
	const op = "scaffold.renderFiles"

	rendered := make([]registry.Descriptor, 0, len(ds))
	var failures []error
	for _, d := range ds {
		p, err := render.Path(d.OutputPattern, ctx)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		body, err := render.Render(d.SourceID, d.Body, ctx)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		d.Path = p
		d.Body = body
		rendered = append(rendered, d)
	}
	if len(failures) > 0 {
		return nil, errs.Wrap(errs.KindRender, op, errors.Join(failures...),
			"%d of %d templates failed to render", len(failures), len(ds))
	}

	merged, err := registry.MergeByPath(rendered, func(d registry.Descriptor) string { return d.Path })
	if err != nil {
		return nil, err
	}

	files := make([]materialize.File, len(merged))
	for i, d := range merged {
		files[i] = materialize.File{
			Path:       d.Path,
			Content:    []byte(d.Body),
			Mode:       d.Mode,
			Overridden: d.Overrides != "",
		}
	}
	return files, nil
}

// planRoots resolves every root against the base directory and rejects
// duplicates and nesting outside a monorepo.
func (g *Generator) planRoots(reqs []component.Request) ([]string, error) {
	const op = "scaffold.Run"

	roots := make([]string, len(reqs))
	for i, r := range reqs {
		if strings.TrimSpace(r.Root) == "" {
			return nil, errs.New(errs.KindValidation, op, "%s: root is required", r.Label())
		}
		root := filepath.FromSlash(r.Root)
		if !filepath.IsAbs(root) {
			root = filepath.Join(g.opts.BaseDir, root)
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errs.Wrap(errs.KindValidation, op, err, "%s: resolving root %q", r.Label(), r.Root)
		}
		roots[i] = abs
	}

	for i := range reqs {
		for j := range reqs {
			if i == j {
				continue
			}
			switch {
			case roots[i] == roots[j] && i < j:
				return nil, errs.New(errs.KindValidation, op,
					"%s and %s share the root %s", reqs[i].Label(), reqs[j].Label(), roots[i])
			case roots[i] != roots[j] && within(roots[j], roots[i]) && reqs[i].Kind != component.KindMonorepo:
				return nil, errs.New(errs.KindValidation, op,
					"%s is nested inside %s; only a monorepo root may contain other components",
					reqs[j].Label(), reqs[i].Label())
			}
		}
	}
	return roots, nil
}

// within reports whether p lies strictly below dir.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func otherRoots(roots []string, skip int) []string {
	out := make([]string, 0, len(roots))
	for i, r := range roots {
		if i != skip {
			out = append(out, r)
		}
	}
	return out
}

func failedLabels(results []ComponentResult) []string {
	var out []string
	for _, r := range results {
		if r.Err != nil {
			out = append(out, fmt.Sprintf("%s (%s)", r.Request.Label(), errs.KindOf(r.Err)))
		}
	}
	return out
}
