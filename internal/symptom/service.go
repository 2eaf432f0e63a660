package symptom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/logger"
	"go.uber.org/zap"
)

// Analyzer is satisfied by *Gateway.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Analysis, error)
}

// Recorder stores a completed check. A failed write returns an error matching
// ErrPersistence, and also ErrQueued when the record was handed off for retry.
type Recorder interface {
	Record(ctx context.Context, req Request, resp Response, requestID string) (uint64, error)
}

type Result struct {
	Response   Response
	RecordID   uint64
	Persisted  bool
	Queued     bool
	PersistErr error
}

type Service struct {
	analyzer Analyzer
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewService(analyzer Analyzer, recorder Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{analyzer: analyzer, recorder: recorder, log: log, now: time.Now}
}

// Check runs one symptom check end to end. Validation failures return a
// *ValidationError before any provider is called; provider failures return an
// error matching ErrLLMUnavailable. A failed history write does not fail the check.
func (s *Service) Check(ctx context.Context, req Request) (*Result, error) {
	log := logger.For(ctx, s.log)
	log.Debug("check stage", zap.String("stage", "received"))

	// 1) validate before spending anything on the provider
	clean, err := Validate(req)
	if err != nil {
		log.Info("check rejected", zap.Error(err))
		return nil, err
	}
	log.Debug("check stage", zap.String("stage", "validated"))

	// 2) local red flags, independent of the model
	flags := DetectRedFlags(clean.Symptoms, clean.Severity)

	// 3) provider chain
	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, clean)
	if err != nil {
		if !errors.Is(err, ErrLLMUnavailable) {
			err = fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
		}
		log.Error("llm unavailable", zap.Duration("cost", time.Since(start)), zap.Error(err))
		return nil, err
	}
	log.Debug("check stage", zap.String("stage", "llm_called"), zap.Duration("cost", time.Since(start)))

	// 4) normalize
	res := &Result{Response: Normalize(analysis, flags, s.now())}
	log.Debug("check stage", zap.String("stage", "normalized"), zap.Int("red_flags", len(flags)))

	// 5) persist before responding; a client disconnect must not drop the record
	if s.recorder != nil {
		id, err := s.recorder.Record(context.WithoutCancel(ctx), clean, res.Response, logger.RequestID(ctx))
		if err != nil {
			res.PersistErr = err
			res.Queued = errors.Is(err, ErrQueued)
			log.Error("history write failed", zap.Bool("queued", res.Queued), zap.Error(err))
		} else {
			res.RecordID = id
			res.Persisted = true
			log.Debug("check stage", zap.String("stage", "persisted"), zap.Uint64("id", id))
		}
	}

	log.Info("check completed",
		zap.Int("conditions", len(res.Response.ProbableConditions)),
		zap.Int("red_flags", len(res.Response.RedFlags)),
		zap.Bool("persisted", res.Persisted),
	)
	return res, nil
}
