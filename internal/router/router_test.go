package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/llm"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(t *testing.T, threshold int, providers ...llm.Provider) *Router {
	t.Helper()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	rot, err := NewRotation(names, threshold)
	if err != nil {
		t.Fatal(err)
	}
	r, err := New(providers, rot, Options{Timeout: time.Second, Logger: quietLogger})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestComplete_FallsBackOnFailure(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Error: errors.New("503")}
	b := &llm.Mock{ProviderName: "b", Response: "from b"}
	r := newTestRouter(t, 10, a, b)

	res, err := r.Complete(context.Background(), content.Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Text != "from b" || res.Provider != "b" || res.Attempts != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if a.Calls() != 1 || b.Calls() != 1 {
		t.Errorf("calls a=%d b=%d", a.Calls(), b.Calls())
	}
	// Neither failures nor fallback wins count
	if r.Rotation().Count("a") != 0 || r.Rotation().Count("b") != 0 {
		t.Errorf("counts a=%d b=%d", r.Rotation().Count("a"), r.Rotation().Count("b"))
	}
}

func TestComplete_Exhausted(t *testing.T) {
	errA := errors.New("a down")
	errB := errors.New("b down")
	a := &llm.Mock{ProviderName: "a", Error: errA}
	b := &llm.Mock{ProviderName: "b", Error: errB}
	r := newTestRouter(t, 10, a, b)

	_, err := r.Complete(context.Background(), content.Request{Prompt: "x"})
	if !errors.Is(err, ErrAllProvidersExhausted) {
		t.Fatalf("expected ErrAllProvidersExhausted, got %v", err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both provider errors to be wrapped, got %v", err)
	}
}

func TestComplete_EmptyTextIsFailure(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "   "}
	b := &llm.Mock{ProviderName: "b", Response: "ok"}
	r := newTestRouter(t, 10, a, b)

	res, err := r.Complete(context.Background(), content.Request{})
	if err != nil || res.Provider != "b" {
		t.Fatalf("expected fallback to b, got %+v %v", res, err)
	}
}

func TestComplete_TimeoutFallsThrough(t *testing.T) {
	slow := &llm.Mock{
		ProviderName: "slow",
		Response:     "late",
		Hook: func(ctx context.Context, _ content.Request) {
			<-ctx.Done()
		},
	}
	fast := &llm.Mock{ProviderName: "fast", Response: "on time"}

	rot, _ := NewRotation([]string{"slow", "fast"}, 10)
	r, err := New([]llm.Provider{slow, fast}, rot, Options{Timeout: 20 * time.Millisecond, Logger: quietLogger})
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Complete(context.Background(), content.Request{})
	if err != nil {
		t.Fatalf("expected fallback after timeout, got %v", err)
	}
	if res.Provider != "fast" {
		t.Errorf("expected fast provider, got %s", res.Provider)
	}
}

func TestComplete_PauseHonorsCancellation(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Error: errors.New("down")}
	b := &llm.Mock{ProviderName: "b", Response: "ok"}
	rot, _ := NewRotation([]string{"a", "b"}, 10)
	r, _ := New([]llm.Provider{a, b}, rot, Options{RetryPause: time.Hour, Logger: quietLogger})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Complete(ctx, content.Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if b.Calls() != 0 {
		t.Error("second provider should not be called after cancellation")
	}
}

func TestComplete_RotatesAfterThreshold(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Response: "from a"}
	b := &llm.Mock{ProviderName: "b", Response: "from b"}
	r := newTestRouter(t, 3, a, b)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, _ := r.Complete(ctx, content.Request{})
		if res.Provider != "a" || res.Rotated {
			t.Fatalf("call %d: expected a without rotation, got %+v", i, res)
		}
	}

	res, _ := r.Complete(ctx, content.Request{})
	if res.Provider != "a" || !res.Rotated {
		t.Fatalf("third call should rotate a, got %+v", res)
	}
	if got := r.Rotation().Order(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("expected order [b a], got %v", got)
	}
	if r.Rotation().Count("a") != 0 {
		t.Errorf("counter should reset, got %d", r.Rotation().Count("a"))
	}

	res, _ = r.Complete(ctx, content.Request{})
	if res.Provider != "b" {
		t.Errorf("next call should use b, got %s", res.Provider)
	}
}

func TestComplete_PromotedProviderStartsFromZero(t *testing.T) {
	a := &llm.Mock{ProviderName: "a", Script: []llm.MockResult{
		{Err: errors.New("503")},
		{Err: errors.New("503")},
	}, Response: "from a"}
	b := &llm.Mock{ProviderName: "b", Response: "from b"}
	r := newTestRouter(t, 3, a, b)
	ctx := context.Background()

	// b wins twice as fallback while a is down
	for i := 0; i < 2; i++ {
		if res, _ := r.Complete(ctx, content.Request{}); res.Provider != "b" {
			t.Fatalf("call %d: expected fallback to b, got %+v", i, res)
		}
	}
	// a recovers and is demoted after three primary successes
	for i := 0; i < 3; i++ {
		if res, _ := r.Complete(ctx, content.Request{}); res.Provider != "a" {
			t.Fatalf("expected a as primary, got %+v", res)
		}
	}
	if got := r.Rotation().Order(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("expected order [b a], got %v", got)
	}
	if r.Rotation().Count("b") != 0 {
		t.Errorf("new primary should start from zero, got %d", r.Rotation().Count("b"))
	}

	for i := 0; i < 2; i++ {
		if res, _ := r.Complete(ctx, content.Request{}); res.Provider != "b" || res.Rotated {
			t.Fatalf("success %d as primary should not rotate, got %+v", i+1, res)
		}
	}
	if res, _ := r.Complete(ctx, content.Request{}); !res.Rotated {
		t.Errorf("third success as primary should rotate, got %+v", res)
	}
	if got := r.Rotation().Order(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected order [a b], got %v", got)
	}
}

func TestRotation_FallbackSuccessNotCounted(t *testing.T) {
	rot, _ := NewRotation([]string{"a", "b"}, 2)
	if rot.RecordSuccess("b") || rot.RecordSuccess("b") {
		t.Error("fallback successes must not rotate")
	}
	if rot.Count("b") != 0 {
		t.Errorf("fallback count = %d", rot.Count("b"))
	}
}

func TestNew_MismatchedProviders(t *testing.T) {
	rot, _ := NewRotation([]string{"a", "b"}, 5)
	if _, err := New([]llm.Provider{&llm.Mock{ProviderName: "a"}}, rot, Options{}); err == nil {
		t.Error("expected error when rotation and providers differ")
	}
}

func TestRotation_ThresholdOne(t *testing.T) {
	rot, _ := NewRotation([]string{"a", "b", "c"}, 1)
	if !rot.RecordSuccess("a") {
		t.Error("threshold 1 should rotate on every success")
	}
	if got := rot.Order(); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("got %v", got)
	}
	if rot.RecordSuccess("unknown") {
		t.Error("unknown provider must not rotate")
	}
}

func TestRotation_ConcurrentSuccessesNotLost(t *testing.T) {
	rot, _ := NewRotation([]string{"a", "b"}, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				rot.RecordSuccess("a")
			}
		}()
	}
	wg.Wait()

	if got := rot.Count("a"); got != 500 {
		t.Errorf("expected 500 counted successes, got %d", got)
	}
}

func TestRotation_RemainsPermutation(t *testing.T) {
	names := []string{"a", "b", "c"}
	rot, _ := NewRotation(names, 2)
	for i := 0; i < 17; i++ {
		rot.RecordSuccess(names[i%3])
	}

	order := rot.Order()
	if len(order) != 3 {
		t.Fatalf("expected 3 providers, got %v", order)
	}
	seen := map[string]bool{}
	for _, n := range order {
		seen[n] = true
	}
	for _, n := range names {
		if !seen[n] {
			t.Errorf("provider %s lost from rotation %v", n, order)
		}
	}
}

func TestNewRotation_Invalid(t *testing.T) {
	if _, err := NewRotation(nil, 3); err == nil {
		t.Error("expected error for empty provider set")
	}
	if _, err := NewRotation([]string{"a"}, 0); err == nil {
		t.Error("expected error for zero threshold")
	}
	if _, err := NewRotation([]string{"a", "a"}, 3); err == nil {
		t.Error("expected error for duplicate names")
	}
}

func TestDrawThreshold(t *testing.T) {
	for seed := uint64(1); seed < 50; seed++ {
		n, err := DrawThreshold(seed, 10, 15)
		if err != nil {
			t.Fatal(err)
		}
		if n < 10 || n > 15 {
			t.Errorf("seed %d: %d outside [10, 15]", seed, n)
		}
	}

	first, _ := DrawThreshold(42, 10, 15)
	second, _ := DrawThreshold(42, 10, 15)
	if first != second {
		t.Errorf("same seed should give the same threshold, got %d and %d", first, second)
	}

	if n, _ := DrawThreshold(0, 7, 7); n != 7 {
		t.Errorf("degenerate range should return its bound, got %d", n)
	}
	if _, err := DrawThreshold(1, 5, 4); err == nil {
		t.Error("expected error for min > max")
	}
}
