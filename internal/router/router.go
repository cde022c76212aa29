// Package router implements the execution loop: it runs the analyze ->
// filter -> select pipeline and tries the ordered candidates one at a
// time until a model succeeds, recording outcomes in the circuit breaker.
package router

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelmux/modelmux/internal/analyzer"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/metrics"
	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/internal/registry"
	"github.com/modelmux/modelmux/internal/selection"
	"github.com/modelmux/modelmux/pkg/types"
)

const tracerName = "modelmux"

// Config controls execution loop behavior.
type Config struct {
	// Rotation enables the provider-fairness pass and usage recording.
	Rotation bool
}

// Router wires the pipeline components into a single entry point.
type Router struct {
	registry *registry.Registry
	analyzer *analyzer.Analyzer
	engine   *selection.Engine
	breaker  *breaker.Breaker
	adapters *provider.Registry
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a router over the given components.
func New(reg *registry.Registry, an *analyzer.Analyzer, engine *selection.Engine,
	brk *breaker.Breaker, adapters *provider.Registry, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: reg,
		analyzer: an,
		engine:   engine,
		breaker:  brk,
		adapters: adapters,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Route analyzes the request, orders candidate models, and executes them
// sequentially until one succeeds. Candidates the breaker has disabled
// are skipped without an attempt. Media-family candidates are skipped
// with a logged no-op: media execution is not wired yet.
func (r *Router) Route(ctx context.Context, text string) (*types.ChatResponse, error) {
	ctx, span := r.tracer.Start(ctx, "router.Route")
	defer span.End()

	analysis := r.analyzer.Analyze(ctx, text)
	span.SetAttributes(
		attribute.String("router.capability", string(analysis.Capability)),
		attribute.StringSlice("router.relevant_metrics", analysis.RelevantMetrics),
	)

	candidates := r.registry.Candidates(analysis.Capability)
	filtered := selection.Filter(candidates, analysis.RelevantMetrics)
	metrics.SelectionCandidates.WithLabelValues(string(analysis.Capability)).Observe(float64(len(filtered)))

	ordered := r.engine.Select(ctx, filtered, analysis)
	if len(ordered) == 0 {
		metrics.RouteRequests.WithLabelValues(string(analysis.Capability), "no_candidates").Inc()
		return nil, &ExhaustedError{Capability: analysis.Capability}
	}

	exhausted := &ExhaustedError{Capability: analysis.Capability}
	for _, cand := range ordered {
		key := cand.Key()

		if _, known := r.registry.Health(key.Provider, key.Name); !known {
			// A refresh purge can remove a model after its candidate
			// snapshot was taken.
			r.logger.Debug("model no longer in registry", "provider", key.Provider, "model", key.Name)
			exhausted.Attempts = append(exhausted.Attempts, Attempt{Key: key, Skipped: SkipUnknownModel})
			continue
		}

		if !r.breaker.Allow(key.Provider, key.Name) {
			r.logger.Debug("skipping disabled model", "provider", key.Provider, "model", key.Name)
			exhausted.Attempts = append(exhausted.Attempts, Attempt{Key: key, Skipped: SkipDisabled})
			continue
		}

		if _, isMedia := cand.Model.(*types.MediaModel); isMedia {
			// Known limitation: media models rank but do not execute.
			r.logger.Info("media model selected but media execution is not wired, skipping",
				"provider", key.Provider, "model", key.Name)
			exhausted.Attempts = append(exhausted.Attempts, Attempt{Key: key, Skipped: SkipMediaNotWired})
			continue
		}

		adapter, ok := r.adapters.Get(key.Provider)
		if !ok || !adapter.IsAvailable() {
			r.logger.Warn("no usable adapter for provider", "provider", key.Provider)
			exhausted.Attempts = append(exhausted.Attempts, Attempt{Key: key, Skipped: SkipNoAdapter})
			continue
		}

		resp, err := adapter.SendMessage(ctx, key.Name, text)
		if err != nil {
			class := r.breaker.RecordFailure(key.Provider, key.Name, err)
			metrics.ExecutionAttempts.WithLabelValues(key.Provider, key.Name, "failure").Inc()
			metrics.AttemptFailuresByClass.WithLabelValues(key.Provider, key.Name, class.String()).Inc()
			if h, found := r.registry.Health(key.Provider, key.Name); found && h.DisabledReason != types.DisabledNone {
				metrics.BreakerDisables.WithLabelValues(key.Provider, key.Name, string(h.DisabledReason)).Inc()
			}
			r.logger.Warn("model execution failed, trying next candidate",
				"provider", key.Provider, "model", key.Name,
				"class", class.String(), "error", err)
			exhausted.Attempts = append(exhausted.Attempts, Attempt{Key: key, Err: err, Class: class})
			continue
		}

		resp.Provider = key.Provider
		r.breaker.RecordSuccess(key.Provider, key.Name)
		if r.cfg.Rotation {
			r.registry.RecordUsage(key.Provider, key.Name)
		}
		metrics.ExecutionAttempts.WithLabelValues(key.Provider, key.Name, "success").Inc()
		metrics.RouteRequests.WithLabelValues(string(analysis.Capability), "success").Inc()
		span.SetAttributes(
			attribute.String("router.provider", key.Provider),
			attribute.String("router.model", key.Name),
		)
		return resp, nil
	}

	metrics.RouteRequests.WithLabelValues(string(analysis.Capability), "exhausted").Inc()
	return nil, exhausted
}

// ResetModel clears any breaker disable on the named model.
func (r *Router) ResetModel(provider, model string) bool {
	return r.breaker.ManualReset(provider, model)
}
