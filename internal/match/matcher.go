// Package match ranks roles against free text by embedding similarity.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoRoles is returned when there is nothing to rank against
var ErrNoRoles = errors.New("no roles to match against")

// Alternate is a suggested role and its similarity as a percentage
type Alternate struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"`
}

// Matcher ranks role names by similarity to a document
type Matcher struct {
	embedder Embedder
}

// NewMatcher creates a matcher; a nil embedder uses HashingEmbedder
func NewMatcher(embedder Embedder) *Matcher {
	if embedder == nil {
		embedder = HashingEmbedder{}
	}
	return &Matcher{embedder: embedder}
}

// DetectRole returns the role whose name is most similar to the job description
func (m *Matcher) DetectRole(ctx context.Context, jdText string, roles []string) (string, error) {
	ranked, err := m.rank(ctx, jdText, roles)
	if err != nil {
		return "", err
	}
	return ranked[0].Role, nil
}

// Alternates returns up to topN roles other than current, most similar first
func (m *Matcher) Alternates(ctx context.Context, summary, current string, roles []string, topN int) ([]Alternate, error) {
	ranked, err := m.rank(ctx, summary, roles)
	if err != nil {
		return nil, err
	}

	out := make([]Alternate, 0, topN)
	for _, a := range ranked {
		if len(out) >= topN {
			break
		}
		if a.Role == current {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Similarity returns the similarity of two texts as a percentage
func (m *Matcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := m.embedder.Embed(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return percent(Cosine(vectors[0], vectors[1])), nil
}

func (m *Matcher) rank(ctx context.Context, text string, roles []string) ([]Alternate, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}

	vectors, err := m.embedder.Embed(ctx, append([]string{text}, roles...))
	if err != nil {
		return nil, fmt.Errorf("failed to embed roles: %w", err)
	}

	query := vectors[0]
	ranked := make([]Alternate, len(roles))
	for i, role := range roles {
		ranked[i] = Alternate{Role: role, Score: percent(Cosine(query, vectors[i+1]))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func percent(cos float64) float64 {
	return math.Round(cos*100*100) / 100
}
