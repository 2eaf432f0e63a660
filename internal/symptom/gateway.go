package symptom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/ai"
	"github.com/suPer8Hu/symptom-checker/internal/monitoring"
	"go.uber.org/zap"
)

// Gateway tries providers in order under a shared deadline until one returns a
// usable analysis.
type Gateway struct {
	providers    []ai.Provider
	callTimeout  time.Duration
	totalTimeout time.Duration
	log          *zap.Logger
}

func NewGateway(providers []ai.Provider, callTimeout, totalTimeout time.Duration, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if callTimeout <= 0 {
		callTimeout = 25 * time.Second
	}
	if totalTimeout < callTimeout {
		totalTimeout = callTimeout
	}
	return &Gateway{
		providers:    providers,
		callTimeout:  callTimeout,
		totalTimeout: totalTimeout,
		log:          log,
	}
}

func (g *Gateway) Analyze(ctx context.Context, req Request) (Analysis, error) {
	if len(g.providers) == 0 {
		return Analysis{}, fmt.Errorf("%w: no providers configured", ErrLLMUnavailable)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, g.totalTimeout)
	defer cancel()

	msgs := BuildMessages(req)

	var lastErr error
	for i, p := range g.providers {
		if err := budgetCtx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			g.log.Warn("llm budget spent, skipping remaining providers",
				zap.String("provider", p.Name()), zap.Int("attempt", i+1))
			break
		}

		a, err := g.attempt(budgetCtx, p, msgs)
		if err == nil {
			return a, nil
		}
		lastErr = err
		g.log.Warn("llm attempt failed",
			zap.String("provider", p.Name()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
	}

	return Analysis{}, fmt.Errorf("%w: %w", ErrLLMUnavailable, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, p ai.Provider, msgs []ai.Message) (Analysis, error) {
	// the parent deadline wins when less budget remains than callTimeout
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	raw, err := p.Chat(callCtx, msgs)
	monitoring.LLMAttemptDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := monitoring.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = monitoring.OutcomeTimeout
		}
		monitoring.LLMAttempts.WithLabelValues(p.Name(), outcome).Inc()
		return Analysis{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	a, err := ParseModelOutput(raw)
	if err != nil {
		monitoring.LLMAttempts.WithLabelValues(p.Name(), monitoring.OutcomeParseFailed).Inc()
		return Analysis{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	monitoring.LLMAttempts.WithLabelValues(p.Name(), monitoring.OutcomeOK).Inc()
	g.log.Debug("llm attempt succeeded",
		zap.String("provider", p.Name()),
		zap.Duration("cost", time.Since(start)),
		zap.Int("conditions", len(a.ProbableConditions)),
	)
	return a, nil
}
