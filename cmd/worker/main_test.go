package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/symptom-checker/internal/history"
	"github.com/suPer8Hu/symptom-checker/internal/store/rabbitmq"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestPendingHandler(t *testing.T) {
	gdb, err := gorm.Open(gormsqlite.Open("file:worker_pending?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	if err := gdb.AutoMigrate(&history.QueryRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	svc := history.NewService(history.NewRepo(gdb), nil, nil, time.Minute, nil)
	handle := pendingHandler(svc, zap.NewNop())

	resp := symptom.Normalize(symptom.Analysis{}, []string{}, time.Now())
	body, _ := json.Marshal(history.PendingRecord{
		EventID:   "evt-1",
		RequestID: "01HREQ",
		Request:   symptom.Request{Symptoms: "cough"},
		Response:  resp,
		FailedAt:  time.Now(),
	})

	if err := handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := handle(context.Background(), []byte("garbage")); !rabbitmq.IsPermanent(err) {
		t.Fatalf("undecodable message should be dead-lettered without retries, got %v", err)
	}

	page, err := svc.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Queries[0].Symptoms != "cough" {
		t.Fatalf("unexpected history: %+v", page)
	}
}

func TestPendingHandler_WriteFailureIsRetried(t *testing.T) {
	gdb, err := gorm.Open(gormsqlite.Open("file:worker_retry?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&history.QueryRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := gdb.DB()
	_ = sqlDB.Close()

	handle := pendingHandler(history.NewService(history.NewRepo(gdb), nil, nil, time.Minute, nil), zap.NewNop())
	body, _ := json.Marshal(history.PendingRecord{
		EventID:  "evt-2",
		Request:  symptom.Request{Symptoms: "cough"},
		Response: symptom.Normalize(symptom.Analysis{}, []string{}, time.Now()),
	})

	err = handle(context.Background(), body)
	if err == nil || rabbitmq.IsPermanent(err) {
		t.Fatalf("a database outage should be retried, got %v", err)
	}
}
