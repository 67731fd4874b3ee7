package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/careerguide/careerguide/internal/cache"
	"github.com/careerguide/careerguide/internal/config"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/generator"
	"github.com/careerguide/careerguide/internal/match"
	"github.com/careerguide/careerguide/internal/recommend"
	"github.com/careerguide/careerguide/internal/router"
	"github.com/careerguide/careerguide/internal/skills"
	"github.com/careerguide/careerguide/internal/spinner"
	"github.com/spf13/viper"
)

// runtime wires the generation stack for one command invocation
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *cache.Store
	router *router.Router
	gen    *generator.Generator

	progress atomic.Pointer[spinner.Spinner]
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	providers, err := CreateProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}
	rt.router, err = CreateRouter(cfg, providers, logger, rt.onAttempt)
	if err != nil {
		return nil, err
	}

	rt.store = cache.New(cfg.ResolvedCacheDir(), logger)
	rt.gen = generator.New(rt.store, rt.router, generator.Options{
		NoCache:   viper.GetBool("no-cache"),
		MaxTokens: cfg.Generation.MaxTokens,
		Logger:    logger,
	})
	return rt, nil
}

// onAttempt reports provider attempts on the active spinner, if any
func (rt *runtime) onAttempt(provider string, attempt int) {
	if sp := rt.progress.Load(); sp != nil {
		if attempt == 1 {
			sp.Update(fmt.Sprintf("Asking %s...", provider))
		} else {
			sp.Update(fmt.Sprintf("Falling back to %s (attempt %d)...", provider, attempt))
		}
	}
}

// generateWithProgress runs one generation with a spinner on stderr
func (rt *runtime) generateWithProgress(ctx context.Context, entity string, purpose content.Purpose, withSpinner bool) (*content.Payload, error) {
	if !withSpinner {
		return rt.gen.Generate(ctx, entity, purpose)
	}

	spin := spinner.New(fmt.Sprintf("Generating %s for %s...", purpose, entity))
	rt.progress.Store(spin)
	spin.Start()
	defer func() {
		rt.progress.Store(nil)
		spin.Stop()
	}()

	return rt.gen.Generate(ctx, entity, purpose)
}

// skillMap returns the configured taxonomy or the built-in one
func (rt *runtime) skillMap() (skills.SkillMap, error) {
	if rt.cfg.Skills.MapPath == "" {
		return skills.DefaultSkillMap(), nil
	}
	return skills.LoadSkillMap(rt.cfg.Skills.MapPath)
}

// pipeline builds the recommendation pipeline
func (rt *runtime) pipeline() (*recommend.Pipeline, error) {
	skillMap, err := rt.skillMap()
	if err != nil {
		return nil, err
	}
	matcher := match.NewMatcher(CreateEmbedder(rt.cfg, rt.logger))
	return recommend.New(rt.gen, rt.gen.Prompts(), skillMap, matcher, recommend.Options{
		Concurrency:  rt.cfg.Generation.Concurrency,
		ResumeTokens: rt.cfg.Generation.ResumeTokens,
		Logger:       rt.logger,
	}), nil
}
