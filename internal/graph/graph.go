// Package graph builds the skill roadmap: one node per skill, coloured by
// whether the resume already covers it, with prerequisite edges between them.
package graph

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/sourcegraph/conc/pool"
)

const (
	ColorMatched = "#22c55e"
	ColorMissing = "#ef4444"

	NoDescription = "No description available."

	DefaultConcurrency = 4
)

// Source supplies generated content for a skill
type Source interface {
	Generate(ctx context.Context, entity string, purpose content.Purpose) (*content.Payload, error)
}

// Node is a skill in the roadmap
type Node struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Edge points from a prerequisite to the skill that needs it
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the roadmap rendered by the caller
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Options tunes Build
type Options struct {
	Concurrency int
	Logger      *slog.Logger
}

// Build creates nodes for every matched and missing skill and links them by
// generated prerequisites. Skills whose content cannot be generated get the
// placeholder description and no incoming edges.
func Build(ctx context.Context, src Source, matched, missing []string, opts Options) Graph {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers < 1 {
		workers = DefaultConcurrency
	}

	isMatched := make(map[string]bool, len(matched))
	all := make(map[string]struct{}, len(matched)+len(missing))
	for _, s := range matched {
		isMatched[s] = true
		all[s] = struct{}{}
	}
	for _, s := range missing {
		all[s] = struct{}{}
	}
	skills := make([]string, 0, len(all))
	for s := range all {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	descriptions := make([]string, len(skills))
	prereqs := make([][]string, len(skills))

	p := pool.New().WithMaxGoroutines(workers)
	for i, skill := range skills {
		p.Go(func() {
			descriptions[i] = describe(ctx, src, skill, logger)
			prereqs[i] = prerequisites(ctx, src, skill, logger)
		})
	}
	p.Wait()

	g := Graph{Nodes: make([]Node, 0, len(skills)), Edges: []Edge{}}
	for i, skill := range skills {
		color := ColorMissing
		if isMatched[skill] {
			color = ColorMatched
		}
		g.Nodes = append(g.Nodes, Node{
			ID:          skill,
			Label:       skill,
			Description: descriptions[i],
			Color:       color,
		})
	}

	for i, skill := range skills {
		for _, pre := range prereqs[i] {
			if from, ok := find(skills, pre); ok {
				g.Edges = append(g.Edges, Edge{From: from, To: skill})
			}
		}
	}
	return g
}

func describe(ctx context.Context, src Source, skill string, logger *slog.Logger) string {
	payload, err := src.Generate(ctx, skill, content.Description)
	if err != nil || strings.TrimSpace(payload.Description) == "" {
		logger.Debug("no description for skill", "skill", skill, "error", err)
		return NoDescription
	}
	return payload.Description
}

func prerequisites(ctx context.Context, src Source, skill string, logger *slog.Logger) []string {
	payload, err := src.Generate(ctx, skill, content.Prerequisites)
	if err != nil {
		logger.Debug("no prerequisites for skill", "skill", skill, "error", err)
		return nil
	}
	return payload.Prerequisites
}

func find(skills []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range skills {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}
