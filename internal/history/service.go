package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/suPer8Hu/symptom-checker/internal/monitoring"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("query not found")
	// ErrInvalidPending marks queued messages that can never be stored.
	ErrInvalidPending = errors.New("invalid pending record")
	// Shared with the orchestrator so it can tell failed from queued writes.
	ErrPersistence = symptom.ErrPersistence
	ErrQueued      = symptom.ErrQueued
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	maxPage         = math.MaxInt32
)

// Cache is a read-through cache for single records (see redisstore.Store).
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Publisher hands failed writes to the retry queue (see rabbitmq.Publisher).
type Publisher interface {
	Publish(ctx context.Context, msg any) error
}

type Service struct {
	repo     *Repo
	cache    Cache
	pub      Publisher
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewService wires the store. cache and pub are optional and may be nil.
func NewService(repo *Repo, cache Cache, pub Publisher, cacheTTL time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Service{repo: repo, cache: cache, pub: pub, cacheTTL: cacheTTL, log: log}
}

// ClampPage applies the paging policy: page >= 1, 1 <= pageSize <= MaxPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (s *Service) List(ctx context.Context, page, pageSize int) (*Page, error) {
	page, pageSize = ClampPage(page, pageSize)

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	out := &Page{Queries: make([]Query, 0, len(recs)), Total: total, Page: page, PageSize: pageSize}
	for i := range recs {
		q, err := recs[i].ToQuery()
		if err != nil {
			return nil, err
		}
		out.Queries = append(out.Queries, *q)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*Query, error) {
	key := cacheKey(id)
	if s.cache != nil {
		var cached Query
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("history cache read failed", zap.Uint64("id", id), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q, err := rec.ToQuery()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, q, s.cacheTTL); err != nil {
			s.log.Warn("history cache write failed", zap.Uint64("id", id), zap.Error(err))
		}
	}
	return q, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey(id)); err != nil {
			s.log.Warn("history cache invalidation failed", zap.Uint64("id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, rec *QueryRecord) (*QueryRecord, error) {
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Record stores a finished check, ignoring cancellation of ctx. On a failed write the check is published for the
// worker when a publisher is configured; the returned error then also matches ErrQueued.
func (s *Service) Record(ctx context.Context, req symptom.Request, resp symptom.Response, requestID string) (uint64, error) {
	ctx = context.WithoutCancel(ctx)
	rec, err := NewRecord(req, resp, requestID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		monitoring.HistoryPersistFailures.Inc()
		if s.pub == nil {
			return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		pending := PendingRecord{
			EventID:   uuid.NewString(),
			RequestID: requestID,
			Request:   req,
			Response:  resp,
			FailedAt:  time.Now().UTC(),
		}
		if perr := s.pub.Publish(ctx, pending); perr != nil {
			s.log.Error("publish pending record failed",
				zap.String("request_id", requestID), zap.Error(perr))
			return 0, fmt.Errorf("%w: %w", ErrPersistence, errors.Join(err, perr))
		}
		s.log.Warn("history write queued for retry",
			zap.String("event_id", pending.EventID), zap.String("request_id", requestID), zap.Error(err))
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrQueued, err)
	}
	return rec.ID, nil
}

// HandlePending replays one queued message body into the store.
func (s *Service) HandlePending(ctx context.Context, body []byte) (*QueryRecord, error) {
	var p PendingRecord
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidPending, err)
	}
	if p.EventID == "" {
		return nil, fmt.Errorf("%w: missing event_id", ErrInvalidPending)
	}
	if _, err := symptom.Validate(p.Request); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPending, p.EventID, err)
	}

	rec, err := NewRecord(p.Request, p.Response, p.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPending, err)
	}
	// created_at is the time of the original check
	if ts, err := time.Parse(symptom.TimestampLayout, p.Response.Timestamp); err == nil {
		rec.CreatedAt = ts
	} else if !p.FailedAt.IsZero() {
		rec.CreatedAt = p.FailedAt
	}
	return s.Create(ctx, rec)
}

func cacheKey(id uint64) string {
	return "history:query:" + strconv.FormatUint(id, 10)
}
