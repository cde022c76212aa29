// Package breaker implements the per-model circuit breaker that governs
// failover. Health state lives on the registry's model records; the
// breaker owns the transition rules.
package breaker

import (
	"log/slog"
	"time"

	pkgerrors "github.com/modelmux/modelmux/pkg/errors"
	"github.com/modelmux/modelmux/pkg/types"
)

const (
	// DefaultFailureThreshold is the consecutive-failure count that trips
	// a temporary disable.
	DefaultFailureThreshold = 3
	// DefaultCooldown is how long a temporarily disabled model stays out
	// of selection.
	DefaultCooldown = 15 * time.Minute
)

// HealthStore is the registry surface the breaker operates on. Updates
// run under the store's lock, so concurrent requests cannot lose failure
// counts.
type HealthStore interface {
	UpdateHealth(provider, model string, fn func(*types.Health)) bool
	Health(provider, model string) (types.Health, bool)
}

// Config tunes the breaker thresholds.
type Config struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// Breaker applies the health state machine:
// healthy -> degraded (1-2 failures) -> temporarily disabled (>=3, transient
// cause) or permanently disabled (credential/billing cause). A success at
// any point resets the model to healthy.
type Breaker struct {
	store  HealthStore
	cfg    Config
	logger *slog.Logger
	nowFn  func() time.Time
}

// New creates a breaker over the given health store.
func New(store HealthStore, cfg Config, logger *slog.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{store: store, cfg: cfg, logger: logger, nowFn: time.Now}
}

// Allow reports whether the model may be attempted now. Permanently
// disabled models are blocked until a success or manual reset; temporary
// disables expire on their own, without clearing the failure counter.
func (b *Breaker) Allow(provider, model string) bool {
	h, ok := b.store.Health(provider, model)
	if !ok {
		return false
	}
	return h.Available(b.nowFn())
}

// RecordSuccess resets the model to healthy. Any disable, including a
// permanent one, is cleared by a successful execution.
func (b *Breaker) RecordSuccess(provider, model string) {
	b.store.UpdateHealth(provider, model, func(h *types.Health) {
		h.ConsecutiveFailures = 0
		h.DisabledReason = types.DisabledNone
		h.DisabledUntil = time.Time{}
	})
}

// RecordFailure increments the failure count and applies the disable
// rules. Returns the error classification.
func (b *Breaker) RecordFailure(provider, model string, err error) pkgerrors.Class {
	class := pkgerrors.Classify(err)
	now := b.nowFn()

	b.store.UpdateHealth(provider, model, func(h *types.Health) {
		h.ConsecutiveFailures++
		h.LastFailureTime = now

		switch {
		case class == pkgerrors.ClassPermanent:
			// Disabled immediately regardless of count.
			h.DisabledReason = types.DisabledPermanent
			h.DisabledUntil = time.Time{}
			b.logger.Warn("model permanently disabled",
				"provider", provider, "model", model, "error", err)
		case h.ConsecutiveFailures >= b.cfg.FailureThreshold:
			h.DisabledReason = types.DisabledTemporary
			h.DisabledUntil = now.Add(b.cfg.Cooldown)
			b.logger.Warn("model temporarily disabled",
				"provider", provider, "model", model,
				"failures", h.ConsecutiveFailures,
				"until", h.DisabledUntil)
		}
	})
	return class
}

// ManualReset clears any disable on the model, including a permanent one,
// without waiting for a successful execution.
func (b *Breaker) ManualReset(provider, model string) bool {
	return b.store.UpdateHealth(provider, model, func(h *types.Health) {
		h.ConsecutiveFailures = 0
		h.DisabledReason = types.DisabledNone
		h.DisabledUntil = time.Time{}
	})
}
