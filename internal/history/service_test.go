package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&QueryRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	hits int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type memPublisher struct {
	msgs []any
	err  error
}

func (p *memPublisher) Publish(ctx context.Context, msg any) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func sampleResponse() symptom.Response {
	return symptom.Normalize(symptom.Analysis{
		ProbableConditions:   []symptom.Condition{{Condition: "Migraine", Confidence: 0.6, Rationale: "throbbing"}},
		RecommendedNextSteps: []symptom.NextStep{{Type: symptom.SelfCare, Text: "dark room"}},
	}, []string{}, time.Now())
}

func seed(t *testing.T, svc *Service, n int) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		id, err := svc.Record(context.Background(), symptom.Request{Symptoms: fmt.Sprintf("symptom %d", i)}, sampleResponse(), "")
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestClampPage(t *testing.T) {
	cases := []struct{ page, size, wantPage, wantSize int }{
		{1, 10, 1, 10},
		{0, 10, 1, 10},
		{-4, 0, 1, 1},
		{3, 101, 3, 100},
		{2, -1, 2, 1},
	}
	for _, tc := range cases {
		p, s := ClampPage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ClampPage(%d,%d) = %d,%d want %d,%d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestList_Pagination(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)
	ids := seed(t, svc, 15)

	first, err := svc.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if first.Total != 15 || len(first.Queries) != 10 || first.Page != 1 || first.PageSize != 10 {
		t.Fatalf("unexpected first page: total=%d len=%d", first.Total, len(first.Queries))
	}
	if first.Queries[0].ID != ids[14] {
		t.Fatalf("newest record should come first, got id %d", first.Queries[0].ID)
	}

	second, err := svc.List(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second.Queries) != 5 || second.Total != 15 {
		t.Fatalf("unexpected second page: len=%d total=%d", len(second.Queries), second.Total)
	}

	seen := map[uint64]bool{}
	for _, q := range append(first.Queries, second.Queries...) {
		if seen[q.ID] {
			t.Fatalf("id %d appears on both pages", q.ID)
		}
		seen[q.ID] = true
	}
	for i := 1; i < len(first.Queries); i++ {
		if first.Queries[i-1].ID < first.Queries[i].ID {
			t.Fatalf("page not in descending order")
		}
	}

	beyond, err := svc.List(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(beyond.Queries) != 0 || beyond.Total != 15 {
		t.Fatalf("page past the end should be empty with total kept")
	}

	clamped, err := svc.List(context.Background(), 0, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if clamped.Page != 1 || clamped.PageSize != 100 || len(clamped.Queries) != 15 {
		t.Fatalf("unexpected clamped page: %+v", clamped)
	}
}

func TestGetAndDelete(t *testing.T) {
	cache := newMemCache()
	svc := NewService(NewRepo(openTestDB(t)), cache, nil, time.Minute, nil)
	ids := seed(t, svc, 1)

	q1, err := svc.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	q2, err := svc.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b1, _ := json.Marshal(q1)
	b2, _ := json.Marshal(q2)
	if string(b1) != string(b2) {
		t.Fatalf("repeated gets differ:\n%s\n%s", b1, b2)
	}
	if cache.hits != 1 {
		t.Fatalf("second get should be served from cache, hits=%d", cache.hits)
	}
	if q1.Symptoms != "symptom 0" || q1.Response.Disclaimer != symptom.Disclaimer {
		t.Fatalf("unexpected record: %+v", q1)
	}

	if err := svc.Delete(context.Background(), ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestDelete_MissingLeavesOthers(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)
	seed(t, svc, 3)

	if err := svc.Delete(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	page, err := svc.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("missing delete must not change the store, total=%d", page.Total)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)
	ids := seed(t, svc, 3)

	if err := svc.Delete(context.Background(), ids[2]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	next := seed(t, svc, 1)
	if next[0] <= ids[2] {
		t.Fatalf("id %d reused or went backwards (deleted %d)", next[0], ids[2])
	}
}

func TestRecord_ConcurrentUniqueIDs(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)

	const n = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[uint64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.Record(context.Background(), symptom.Request{Symptoms: fmt.Sprintf("c%d", i)}, sampleResponse(), "")
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != n {
		t.Fatalf("expected %d unique ids, got %d", n, len(ids))
	}
}

func TestRecord_IgnoresCancelledContext(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	id, err := svc.Record(ctx, symptom.Request{Symptoms: "cough"}, sampleResponse(), "")
	if err != nil {
		t.Fatalf("record with cancelled ctx: %v", err)
	}
	if _, err := svc.Get(context.Background(), id); err != nil {
		t.Fatalf("record not stored: %v", err)
	}
}

func TestRecord_FailureIsQueued(t *testing.T) {
	db := openTestDB(t)
	pub := &memPublisher{}
	svc := NewService(NewRepo(db), nil, pub, 0, nil)

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	resp := sampleResponse()
	_, err := svc.Record(context.Background(), symptom.Request{Symptoms: "cough"}, resp, "01HREQ")
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, ErrQueued) {
		t.Fatalf("expected persistence+queued error, got %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one pending message, got %d", len(pub.msgs))
	}
	p, ok := pub.msgs[0].(PendingRecord)
	if !ok || p.EventID == "" || p.RequestID != "01HREQ" || p.Response.Timestamp != resp.Timestamp {
		t.Fatalf("unexpected pending message: %#v", pub.msgs[0])
	}
}

func TestRecord_FailureWithoutQueue(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), nil, &memPublisher{err: errors.New("broker down")}, 0, nil)

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	_, err := svc.Record(context.Background(), symptom.Request{Symptoms: "cough"}, sampleResponse(), "")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if errors.Is(err, ErrQueued) {
		t.Fatal("record was not queued")
	}
}

func TestHandlePending(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)), nil, nil, 0, nil)

	resp := sampleResponse()
	body, _ := json.Marshal(PendingRecord{
		EventID:   "3b241101-e2bb-4255-8caf-4136c566a962",
		RequestID: "01HREQ",
		Request:   symptom.Request{Symptoms: "cough"},
		Response:  resp,
		FailedAt:  time.Now().UTC(),
	})

	rec, err := svc.HandlePending(context.Background(), body)
	if err != nil {
		t.Fatalf("handle pending: %v", err)
	}
	q, err := svc.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.CreatedAt != resp.Timestamp {
		t.Fatalf("created_at should be the original check time: %s vs %s", q.CreatedAt, resp.Timestamp)
	}

	if _, err := svc.HandlePending(context.Background(), []byte("{not json")); !errors.Is(err, ErrInvalidPending) {
		t.Fatalf("expected ErrInvalidPending for bad json, got %v", err)
	}
	if _, err := svc.HandlePending(context.Background(), []byte(`{"event_id":"x","request":{"symptoms":""}}`)); !errors.Is(err, ErrInvalidPending) {
		t.Fatalf("expected ErrInvalidPending for an invalid request, got %v", err)
	}
}
