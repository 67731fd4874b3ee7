// Package router tries the configured providers in rotation order until one
// produces text, demoting the primary after a run of successes.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/llm"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryPause = time.Second
)

// ErrAllProvidersExhausted is returned when every provider failed for a request
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// Options configures a Router
type Options struct {
	// Timeout bounds a single provider call
	Timeout time.Duration

	// RetryPause is the wait between a failed provider and the next one
	RetryPause time.Duration

	Logger *slog.Logger

	// OnAttempt, if set, is called before each provider attempt
	OnAttempt func(provider string, attempt int)
}

// Result is the outcome of a successful Complete call
type Result struct {
	Text     string
	Provider string
	Attempts int
	Rotated  bool
}

// Router dispatches requests across providers with fallback and rotation
type Router struct {
	providers map[string]llm.Provider
	rotation  *Rotation
	opts      Options
	logger    *slog.Logger
}

// New creates a router. Every provider must appear in the rotation and vice versa.
func New(providers []llm.Provider, rotation *Rotation, opts Options) (*Router, error) {
	byName := make(map[string]llm.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	order := rotation.Order()
	if len(order) != len(byName) {
		return nil, fmt.Errorf("rotation has %d providers, router has %d", len(order), len(byName))
	}
	for _, name := range order {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("rotation references unknown provider %q", name)
		}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryPause < 0 {
		opts.RetryPause = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		providers: byName,
		rotation:  rotation,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Rotation returns the rotation state shared by this router
func (r *Router) Rotation() *Rotation {
	return r.rotation
}

// Complete tries each provider in the current order until one returns text.
// The order is snapshotted once per call so concurrent rotations do not make
// a request skip or repeat a provider.
func (r *Router) Complete(ctx context.Context, req content.Request) (Result, error) {
	order := r.rotation.Order()
	var errs []error

	for i, name := range order {
		if i > 0 && r.opts.RetryPause > 0 {
			if err := sleep(ctx, r.opts.RetryPause); err != nil {
				return Result{}, fmt.Errorf("generation abandoned: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("generation abandoned: %w", err)
		}

		if r.opts.OnAttempt != nil {
			r.opts.OnAttempt(name, i+1)
		}

		start := time.Now()
		text, err := r.attempt(ctx, r.providers[name], req)
		if err != nil {
			r.logger.Warn("provider failed, trying next",
				"provider", name,
				"entity", req.Entity,
				"purpose", req.Purpose,
				"elapsed", time.Since(start).Round(time.Millisecond),
				"error", err)
			errs = append(errs, err)
			continue
		}

		rotated := r.rotation.RecordSuccess(name)
		if rotated {
			r.logger.Info("rotated primary provider", "demoted", name, "order", r.rotation.Order())
		}
		r.logger.Debug("provider succeeded", "provider", name, "attempt", i+1,
			"elapsed", time.Since(start).Round(time.Millisecond))

		return Result{
			Text:     text,
			Provider: name,
			Attempts: i + 1,
			Rotated:  rotated,
		}, nil
	}

	return Result{}, fmt.Errorf("%w: %w", ErrAllProvidersExhausted, errors.Join(errs...))
}

// attempt runs one bounded provider call. A timeout counts as a provider failure.
func (r *Router) attempt(ctx context.Context, p llm.Provider, req content.Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	text, err := p.Generate(callCtx, req)
	if err != nil {
		if errors.Is(err, llm.ErrProvider) {
			return "", err
		}
		return "", &llm.ProviderError{Provider: p.Name(), Op: "generate", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &llm.ProviderError{Provider: p.Name(), Op: "generate", Err: llm.ErrEmptyResponse}
	}
	return text, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
