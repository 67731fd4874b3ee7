// Package generator implements the cache-first content generation boundary:
// cache lookup, prompt building, provider fallback, parsing and cache write.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careerguide/careerguide/internal/cache"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/parser"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/router"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidPurpose is returned for purposes the generator does not know
var ErrInvalidPurpose = errors.New("invalid purpose")

// Completer sends a request through one or more providers
type Completer interface {
	Complete(ctx context.Context, req content.Request) (router.Result, error)
}

// Options configures a Generator
type Options struct {
	// NoCache skips cache reads; successful results are still written
	NoCache bool

	// MaxTokens is the max-output hint passed to providers (0 = default)
	MaxTokens int

	Logger *slog.Logger
}

// Generator produces structured content for (entity, purpose) pairs
type Generator struct {
	cache   *cache.Store
	router  Completer
	prompts *prompt.Builder
	opts    Options
	logger  *slog.Logger
	flight  singleflight.Group
}

// New creates a generator
func New(store *cache.Store, r Completer, opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cache:   store,
		router:  r,
		prompts: prompt.NewBuilder(opts.MaxTokens),
		opts:    opts,
		logger:  logger,
	}
}

// Generate returns content for entity and purpose, from cache when possible.
//
// At most one generation per (entity, purpose) is in flight; concurrent
// callers for the same key share its result. If ctx is cancelled the caller
// stops waiting but the generation keeps running so its result still lands
// in the cache.
func (g *Generator) Generate(ctx context.Context, entity string, purpose content.Purpose) (*content.Payload, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}
	token, err := cache.NormalizeEntity(entity)
	if err != nil {
		return nil, err
	}

	if !g.opts.NoCache {
		if payload, ok := g.cache.Get(entity, purpose); ok {
			g.logger.Debug("cache hit", "entity", token, "purpose", purpose)
			return payload, nil
		}
	}

	key := token + "/" + purpose.String()
	detached := context.WithoutCancel(ctx)
	ch := g.flight.DoChan(key, func() (any, error) {
		return g.generate(detached, entity, purpose)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("stopped waiting for %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*content.Payload), nil
	}
}

func (g *Generator) generate(ctx context.Context, entity string, purpose content.Purpose) (*content.Payload, error) {
	// Another flight for this key may have finished between our miss and now
	if !g.opts.NoCache {
		if payload, ok := g.cache.Get(entity, purpose); ok {
			return payload, nil
		}
	}

	req, err := g.prompts.Build(entity, purpose)
	if err != nil {
		return nil, err
	}

	res, err := g.router.Complete(ctx, req)
	if err != nil {
		g.logger.Error("no content available", "entity", req.Entity, "purpose", purpose, "error", err)
		return nil, err
	}

	payload, err := parser.Parse(res.Text, purpose)
	if err != nil {
		g.logger.Warn("provider response yielded nothing usable",
			"entity", req.Entity,
			"purpose", purpose,
			"provider", res.Provider,
			"response", truncate(res.Text, 120))
		return nil, err
	}
	payload.Entity = req.Entity

	if err := g.cache.Put(entity, purpose, payload); err != nil {
		g.logger.Warn("failed to write cache", "entity", req.Entity, "purpose", purpose, "error", err)
	}

	g.logger.Debug("generated content", "entity", req.Entity, "purpose", purpose, "provider", res.Provider, "attempts", res.Attempts)
	return payload, nil
}

// Complete passes a free-form request straight to the router without caching
func (g *Generator) Complete(ctx context.Context, req content.Request) (string, error) {
	res, err := g.router.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Prompts returns the prompt builder used by this generator
func (g *Generator) Prompts() *prompt.Builder {
	return g.prompts
}

// truncate truncates a string to maxLen characters with ellipsis
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
