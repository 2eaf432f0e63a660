package redisstore

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestStore_JSONRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	s, err := New(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	key := "test:redisstore:" + time.Now().Format("150405.000000000")
	defer func() { _ = s.Del(ctx, key) }()

	type item struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	var got item
	hit, err := s.GetJSON(ctx, key, &got)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	if err := s.SetJSON(ctx, key, item{ID: 3, Name: "cough"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	hit, err = s.GetJSON(ctx, key, &got)
	if err != nil || !hit || got.ID != 3 || got.Name != "cough" {
		t.Fatalf("unexpected get: hit=%v err=%v got=%+v", hit, err, got)
	}

	if err := s.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if hit, _ := s.GetJSON(ctx, key, &got); hit {
		t.Fatal("key should be gone after Del")
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}
