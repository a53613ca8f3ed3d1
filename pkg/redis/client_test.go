package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = toString(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if val, ok := m.data[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := m.data[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	m.data[key] = toString(value)
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func TestSetNXIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	if err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if !ok {
		t.Fatal("expected first SetNX to succeed")
	}

	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	if err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if ok {
		t.Fatal("expected second SetNX to lose")
	}

	val, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "first" {
		t.Fatalf("expected first value retained, got %q", val)
	}
}

func TestKeyBuildersAreNamespaced(t *testing.T) {
	client := &Client{store: newMockCmdable()}

	if got := client.IdempotencyKey("evt:processed:x", "abc"); got != "hh:idempotency:evt:processed:x:abc" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := client.LockKey("cron-worker"); got != "hh:lock:cron-worker" {
		t.Fatalf("unexpected lock key %q", got)
	}
	if got := client.AccessSessionKey("jti-1"); got != "hh:session:access:jti-1" {
		t.Fatalf("unexpected session key %q", got)
	}
}

func TestDelRemovesKeys(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	if err := client.Set(ctx, "a", "1", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Del(ctx, "a"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, "a"); err == nil {
		t.Fatal("expected redis.Nil after delete")
	}
}
