package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	sess := New("sess-1", &Metadata{Channel: "sms"})
	sess.AddMessage(Message{Sender: SenderCounterpart, Text: "hello"})

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "sess-1" || got.TotalMessages != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 1 {
		t.Errorf("count = %d, err = %v", count, err)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, nil); err == nil {
		t.Error("nil session accepted")
	}
	if err := store.Save(ctx, &Session{}); err == nil {
		t.Error("empty id accepted")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, New("sess-1", nil)); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := store.Get(ctx, "sess-1")
	if got != nil {
		t.Error("session survived delete")
	}
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("deleting unknown id: %v", err)
	}
}

func TestMemoryStoreStaleTreatedAsMissing(t *testing.T) {
	store := NewMemoryStore(WithMaxAge(50 * time.Millisecond))
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, New("sess-1", nil)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("stale session returned")
	}
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), 0, time.Hour)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	sess := New("sess-1", nil)
	sess.AddMessage(Message{Sender: SenderCounterpart, Text: "share your otp"})
	sess.Score = 0.62
	sess.ScamSuspected = true

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("session not found after save")
	}
	if got.Score != 0.62 || !got.ScamSuspected || got.TotalMessages != 1 {
		t.Errorf("fields lost in round trip: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "share your otp" {
		t.Errorf("history lost in round trip: %+v", got.Messages)
	}
}

func TestRedisStoreNotFound(t *testing.T) {
	store, _ := newTestRedisStore(t)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestRedisStoreDeleteAndCount(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, New(id, nil)); err != nil {
			t.Fatal(err)
		}
	}
	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count = %d, err = %v", count, err)
	}

	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, err = store.Count(ctx)
	if err != nil || count != 2 {
		t.Errorf("count after delete = %d, err = %v", count, err)
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, New("sess-1", nil)); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("session survived TTL expiry")
	}
}
