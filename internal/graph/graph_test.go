package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/careerguide/careerguide/internal/content"
)

type stubSource struct {
	mu      sync.Mutex
	descs   map[string]string
	prereqs map[string][]string
	calls   int
}

func (s *stubSource) Generate(_ context.Context, entity string, purpose content.Purpose) (*content.Payload, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	switch purpose {
	case content.Description:
		d, ok := s.descs[entity]
		if !ok {
			return nil, errors.New("all providers failed")
		}
		return &content.Payload{Entity: entity, Description: d}, nil
	case content.Prerequisites:
		p, ok := s.prereqs[entity]
		if !ok {
			return nil, errors.New("all providers failed")
		}
		return &content.Payload{Entity: entity, Prerequisites: p}, nil
	}
	return nil, errors.New("unexpected purpose")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuild(t *testing.T) {
	src := &stubSource{
		descs: map[string]string{
			"html":  "Markup language for web pages.",
			"react": "UI library.",
		},
		prereqs: map[string][]string{
			"react":      {"JavaScript", "HTML", "npm"},
			"javascript": {"HTML"},
		},
	}

	g := Build(context.Background(), src, []string{"html"}, []string{"react", "javascript", "html"}, Options{Logger: quietLogger})

	wantNodes := []Node{
		{ID: "html", Label: "html", Description: "Markup language for web pages.", Color: ColorMatched},
		{ID: "javascript", Label: "javascript", Description: NoDescription, Color: ColorMissing},
		{ID: "react", Label: "react", Description: "UI library.", Color: ColorMissing},
	}
	if !reflect.DeepEqual(g.Nodes, wantNodes) {
		t.Errorf("nodes:\n got %+v\nwant %+v", g.Nodes, wantNodes)
	}

	wantEdges := []Edge{
		{From: "html", To: "javascript"},
		{From: "javascript", To: "react"},
		{From: "html", To: "react"},
	}
	if !reflect.DeepEqual(g.Edges, wantEdges) {
		t.Errorf("edges:\n got %+v\nwant %+v", g.Edges, wantEdges)
	}

	// One description and one prerequisites request per skill
	if src.calls != 6 {
		t.Errorf("expected 6 generator calls, got %d", src.calls)
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(context.Background(), &stubSource{}, nil, nil, Options{Logger: quietLogger})
	if len(g.Nodes) != 0 || g.Edges == nil || len(g.Edges) != 0 {
		t.Errorf("unexpected graph %+v", g)
	}
}
