// Package validator runs the validation pipeline for an architecture: load,
// index, structural checks, reference resolution, link checks and gap rules,
// assembled into one ordered report.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/gaps"
	"github.com/ajitpratap0/adlint/internal/index"
	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/metrics"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// DefaultConcurrency bounds ValidateAll when no limit is configured.
const DefaultConcurrency = 4

// Engine validates architectures. It holds only immutable configuration and
// is safe for concurrent use.
type Engine struct {
	reg         *schema.Registry
	rules       []gaps.Rule
	links       LinkPolicy
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default gap rules.
func WithRules(rules []gaps.Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithLinkPolicy replaces the default link policy.
func WithLinkPolicy(p LinkPolicy) Option {
	return func(e *Engine) { e.links = p }
}

// WithConcurrency bounds the number of parallel runs in ValidateAll.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for the registry. Gap rules are checked against it.
func New(reg *schema.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		reg:         reg,
		rules:       gaps.DefaultRules(),
		links:       DefaultLinkPolicy(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.links.Schemes) == 0 {
		return nil, fmt.Errorf("link policy: at least one scheme is required")
	}
	if err := gaps.Validate(e.rules, reg); err != nil {
		return nil, fmt.Errorf("gap rules: %w", err)
	}
	return e, nil
}

// Registry returns the engine's entity registry.
func (e *Engine) Registry() *schema.Registry { return e.reg }

// Validate loads and checks one architecture below root.
func (e *Engine) Validate(ctx context.Context, root, archID string) *diag.Report {
	ctx, span := metrics.Tracer.Start(ctx, "validator.Validate",
		trace.WithAttributes(attribute.String("architecture.id", archID)))
	defer span.End()
	start := time.Now()
	defer metrics.ObserveSince(metrics.RunDuration, start)

	_, loadSpan := metrics.Tracer.Start(ctx, "validator.load")
	snap, fatal := loader.Load(root, archID, e.reg)
	loadSpan.End()

	var report *diag.Report
	if len(fatal) > 0 {
		report = diag.Aggregate(archID, fatal, e.reg)
		span.SetStatus(codes.Error, "load failed")
		metrics.Inc(metrics.RunsTotal.WithLabelValues("load_error"))
	} else {
		report = diag.Aggregate(archID, e.Check(ctx, snap), e.reg)
		metrics.Inc(metrics.RunsTotal.WithLabelValues(string(report.Status)))
	}
	for _, d := range report.Diagnostics {
		metrics.Inc(metrics.DiagnosticsTotal.WithLabelValues(string(d.Severity), string(d.Code)))
	}
	span.SetAttributes(
		attribute.Int("diagnostics.errors", report.Summary.Errors),
		attribute.Int("diagnostics.warnings", report.Summary.Warnings),
	)

	e.logger.Debug("validation finished",
		"architecture", archID,
		"status", report.Status,
		"errors", report.Summary.Errors,
		"warnings", report.Summary.Warnings,
		"duration", time.Since(start),
	)
	return report
}

// Check runs every validator over a loaded snapshot and returns the raw
// findings. Gap rules run even when other checks report errors.
func (e *Engine) Check(ctx context.Context, snap *loader.Snapshot) []diag.Diagnostic {
	var diags []diag.Diagnostic
	phase := func(name string, fn func() []diag.Diagnostic) {
		_, span := metrics.Tracer.Start(ctx, "validator."+name)
		found := fn()
		span.SetAttributes(attribute.Int("diagnostics", len(found)))
		span.End()
		diags = append(diags, found...)
	}

	var idx *index.Index
	phase("index", func() []diag.Diagnostic {
		var d []diag.Diagnostic
		idx, d = index.Build(snap, e.reg.Order())
		return d
	})
	phase("structure", func() []diag.Diagnostic { return checkStructure(snap, e.reg) })
	phase("references", func() []diag.Diagnostic { return checkReferences(snap, idx, e.reg) })
	phase("links", func() []diag.Diagnostic { return checkLinks(snap, e.reg, e.links) })
	phase("gaps", func() []diag.Diagnostic { return gaps.Analyze(snap, idx, e.rules) })
	return diags
}

// ValidateAll validates several architectures in parallel and returns their
// reports in input order. It fails only when ctx is cancelled.
func (e *Engine) ValidateAll(ctx context.Context, root string, archIDs []string) ([]*diag.Report, error) {
	reports := make([]*diag.Report, len(archIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, id := range archIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = e.Validate(gctx, root, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validating architectures: %w", err)
	}
	return reports, nil
}
