package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/careerguide/careerguide/internal/cache"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/llm"
	"github.com/careerguide/careerguide/internal/parser"
	"github.com/careerguide/careerguide/internal/router"
)

const sectionText = `Learning Path:
- Learn HTML basics
- Build a static page
- Learn CSS layout

Project Ideas:
- Personal portfolio site
- Recipe card gallery`

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	gen   *Generator
	store *cache.Store
	rot   *router.Rotation
}

func newFixture(t *testing.T, opts Options, providers ...llm.Provider) fixture {
	t.Helper()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	rot, err := router.NewRotation(names, 10)
	if err != nil {
		t.Fatal(err)
	}
	r, err := router.New(providers, rot, router.Options{Timeout: time.Second, Logger: quietLogger})
	if err != nil {
		t.Fatal(err)
	}
	store := cache.New(t.TempDir(), quietLogger)
	opts.Logger = quietLogger
	return fixture{gen: New(store, r, opts), store: store, rot: rot}
}

func TestGenerate_CacheIdempotence(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: sectionText}
	f := newFixture(t, Options{}, a)
	ctx := context.Background()

	first, err := f.gen.Generate(ctx, "HTML", content.LearningAndProjects)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	second, err := f.gen.Generate(ctx, "html", content.LearningAndProjects)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("payloads differ:\n%+v\n%+v", first, second)
	}
	if a.Calls() != 1 {
		t.Errorf("expected 1 provider call, got %d", a.Calls())
	}
}

func TestGenerate_Fallback(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Error: errors.New("rate limited")}
	b := &llm.Mock{ProviderName: "b", Response: sectionText}
	f := newFixture(t, Options{}, a, b)

	got, err := f.gen.Generate(context.Background(), "html", content.LearningAndProjects)
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	want := []string{"Personal portfolio site", "Recipe card gallery"}
	if !reflect.DeepEqual(got.ProjectIdeas, want) {
		t.Errorf("got %q, want %q", got.ProjectIdeas, want)
	}
	if got.Entity != "html" {
		t.Errorf("expected entity to be recorded, got %q", got.Entity)
	}
}

func TestGenerate_ExhaustedWritesNothing(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Error: errors.New("down")}
	b := &llm.Mock{ProviderName: "b", Error: errors.New("down")}
	f := newFixture(t, Options{}, a, b)

	payload, err := f.gen.Generate(context.Background(), "html", content.LearningAndProjects)
	if !errors.Is(err, router.ErrAllProvidersExhausted) {
		t.Fatalf("expected ErrAllProvidersExhausted, got %v", err)
	}
	if payload != nil {
		t.Error("expected no payload")
	}
	assertEmptyCache(t, f.store)
}

func TestGenerate_NothingParsedNotCached(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "Learning Path:\n\nProject Ideas:\n"}
	f := newFixture(t, Options{}, a)

	_, err := f.gen.Generate(context.Background(), "html", content.LearningAndProjects)
	if !errors.Is(err, parser.ErrNothingParsed) {
		t.Fatalf("expected ErrNothingParsed, got %v", err)
	}
	assertEmptyCache(t, f.store)

	// The next call tries again instead of serving a cached empty result
	if _, err := f.gen.Generate(context.Background(), "html", content.LearningAndProjects); err == nil {
		t.Error("expected another failure")
	}
	if a.Calls() != 2 {
		t.Errorf("expected 2 provider calls, got %d", a.Calls())
	}
}

func TestGenerate_CorruptedRecordOverwritten(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "Go is a statically typed language."}
	f := newFixture(t, Options{}, a)

	path, _ := f.store.Path("go", content.Description)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := f.gen.Generate(context.Background(), "Go", content.Description)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "Go is a statically typed language." {
		t.Errorf("unexpected description %q", got.Description)
	}

	cached, ok := f.store.Get("go", content.Description)
	if !ok || cached.Description != got.Description {
		t.Error("expected the corrupted record to be replaced")
	}
}

func TestGenerate_NoCacheStillWrites(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "Linux, Networking"}
	f := newFixture(t, Options{NoCache: true}, a)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.gen.Generate(ctx, "docker", content.Prerequisites); err != nil {
			t.Fatal(err)
		}
	}
	if a.Calls() != 2 {
		t.Errorf("no-cache should bypass reads, got %d calls", a.Calls())
	}
	if _, ok := f.store.Get("docker", content.Prerequisites); !ok {
		t.Error("no-cache should still write results")
	}
}

func TestGenerate_ConcurrentDuplicatesShareOneCall(t *testing.T) {
	release := make(chan struct{})
	a := &llm.Mock{
		ProviderName: "a",
		Response:     sectionText,
		Hook: func(context.Context, content.Request) {
			<-release
		},
	}
	f := newFixture(t, Options{}, a)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*content.Payload, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.gen.Generate(context.Background(), "HTML", content.LearningAndProjects)
		}(i)
	}

	// Give every caller time to join the in-flight generation
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if a.Calls() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", a.Calls())
	}
	for i := range results {
		if errs[i] != nil || results[i] == nil || len(results[i].LearningPath) != 3 {
			t.Errorf("caller %d: payload %+v err %v", i, results[i], errs[i])
		}
	}
}

func TestGenerate_CancelledCallerStillWarmsCache(t *testing.T) {
	release := make(chan struct{})
	a := &llm.Mock{
		ProviderName: "a",
		Response:     "Kubernetes orchestrates containers.",
		Hook: func(context.Context, content.Request) {
			<-release
		},
	}
	f := newFixture(t, Options{}, a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.gen.Generate(ctx, "kubernetes", content.Description)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := f.store.Get("kubernetes", content.Description); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected the abandoned generation to populate the cache")
}

func TestGenerate_InvalidInput(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "x"}
	f := newFixture(t, Options{}, a)

	if _, err := f.gen.Generate(context.Background(), "go", content.Purpose("summary")); !errors.Is(err, ErrInvalidPurpose) {
		t.Errorf("expected ErrInvalidPurpose, got %v", err)
	}
	if _, err := f.gen.Generate(context.Background(), "   ", content.Description); !errors.Is(err, cache.ErrInvalidEntity) {
		t.Errorf("expected ErrInvalidEntity, got %v", err)
	}
	if a.Calls() != 0 {
		t.Error("invalid input must not reach providers")
	}
}

func TestGenerate_RotationAcrossEntities(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "A description."}
	b := &llm.Mock{ProviderName: "b", Response: "B description."}

	rot, _ := router.NewRotation([]string{"a", "b"}, 2)
	r, _ := router.New([]llm.Provider{a, b}, rot, router.Options{Logger: quietLogger})
	gen := New(cache.New(t.TempDir(), quietLogger), r, Options{Logger: quietLogger})
	ctx := context.Background()

	for _, skill := range []string{"go", "rust"} {
		if _, err := gen.Generate(ctx, skill, content.Description); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := gen.Generate(ctx, "zig", content.Description)
	if got.Description != "B description." {
		t.Errorf("expected b after rotation, got %q", got.Description)
	}
	if !reflect.DeepEqual(rot.Order(), []string{"b", "a"}) {
		t.Errorf("unexpected order %v", rot.Order())
	}
}

func assertEmptyCache(t *testing.T, store *cache.Store) {
	t.Helper()
	stats, err := store.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 0 {
		t.Errorf("expected empty cache, got %d entries", stats.TotalEntries)
	}
}
