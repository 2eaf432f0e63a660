package symptom

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/ai"
)

type fakeProvider struct {
	name  string
	calls atomic.Int32
	chat  func(ctx context.Context, messages []ai.Message) (string, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	p.calls.Add(1)
	return p.chat(ctx, messages)
}

func answer(s string) func(context.Context, []ai.Message) (string, error) {
	return func(context.Context, []ai.Message) (string, error) { return s, nil }
}

func fail(err error) func(context.Context, []ai.Message) (string, error) {
	return func(context.Context, []ai.Message) (string, error) { return "", err }
}

func block(ctx context.Context, _ []ai.Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var cough = Request{Symptoms: "cough", Age: intPtr(30)}

func TestGateway_PrimarySucceeds(t *testing.T) {
	var got []ai.Message
	primary := &fakeProvider{name: "primary", chat: func(_ context.Context, m []ai.Message) (string, error) {
		got = m
		return validOutput, nil
	}}
	fallback := &fakeProvider{name: "fallback", chat: answer(validOutput)}

	g := NewGateway([]ai.Provider{primary, fallback}, time.Second, 2*time.Second, nil)
	a, err := g.Analyze(context.Background(), cough)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(a.ProbableConditions) != 2 {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if fallback.calls.Load() != 0 {
		t.Fatal("fallback should not be called when primary succeeds")
	}
	if len(got) != 2 || got[0].Role != ai.RoleSystem || !strings.Contains(got[1].Content, "Symptoms: cough\nAge: 30") {
		t.Fatalf("unexpected prompt: %+v", got)
	}
}

func TestGateway_FallsBackOnError(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: fail(errors.New("status 500"))}
	fallback := &fakeProvider{name: "fallback", chat: answer(validOutput)}

	g := NewGateway([]ai.Provider{primary, fallback}, time.Second, 2*time.Second, nil)
	if _, err := g.Analyze(context.Background(), cough); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if primary.calls.Load() != 1 || fallback.calls.Load() != 1 {
		t.Fatalf("expected one call each, got %d/%d", primary.calls.Load(), fallback.calls.Load())
	}
}

func TestGateway_FallsBackOnMalformedOutput(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: answer("not json at all")}
	fallback := &fakeProvider{name: "fallback", chat: answer(validOutput)}

	g := NewGateway([]ai.Provider{primary, fallback}, time.Second, 2*time.Second, nil)
	if _, err := g.Analyze(context.Background(), cough); err != nil {
		t.Fatalf("analyze: %v", err)
	}
}

func TestGateway_AllFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: fail(errors.New("connection refused"))}
	fallback := &fakeProvider{name: "fallback", chat: answer(`{"probable_conditions": 3}`)}

	g := NewGateway([]ai.Provider{primary, fallback}, time.Second, 2*time.Second, nil)
	_, err := g.Analyze(context.Background(), cough)
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrMalformedModelOutput) {
		t.Fatalf("last failure was a parse failure, got %v", err)
	}
}

func TestGateway_NoProviders(t *testing.T) {
	g := NewGateway(nil, time.Second, time.Second, nil)
	if _, err := g.Analyze(context.Background(), cough); !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestGateway_PerCallTimeout(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: block}
	fallback := &fakeProvider{name: "fallback", chat: answer(validOutput)}

	g := NewGateway([]ai.Provider{primary, fallback}, 30*time.Millisecond, 2*time.Second, nil)
	start := time.Now()
	if _, err := g.Analyze(context.Background(), cough); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("primary attempt was not bounded by the call timeout")
	}
}

func TestGateway_BudgetStopsFurtherAttempts(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: block}
	fallback := &fakeProvider{name: "fallback", chat: answer(validOutput)}

	g := NewGateway([]ai.Provider{primary, fallback}, 50*time.Millisecond, 50*time.Millisecond, nil)
	_, err := g.Analyze(context.Background(), cough)
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
	if fallback.calls.Load() != 0 {
		t.Fatal("no attempt should start once the budget is spent")
	}
}

func TestGateway_CallerCancelled(t *testing.T) {
	primary := &fakeProvider{name: "primary", chat: answer(validOutput)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGateway([]ai.Provider{primary}, time.Second, time.Second, nil)
	if _, err := g.Analyze(ctx, cough); !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
	if primary.calls.Load() != 0 {
		t.Fatal("provider must not be called with a done context")
	}
}
