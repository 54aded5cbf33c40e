package ristretto

import (
	"context"
	"testing"
	"time"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestGetSet_RoundTrip(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "digest-1", []byte(`{"issues":[]}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	data, ok, err := c.Get(ctx, "digest-1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected hit after Wait")
	}
	if string(data) != `{"issues":[]}` {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestGet_UnknownKeyMisses(t *testing.T) {
	c := newCache(t)

	_, ok, err := c.Get(context.Background(), "never-set")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("unknown key must miss")
	}
}

func TestDelete_DropsEntry(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "digest-2", []byte(`1`), time.Minute)
	c.Wait()

	if err := c.Delete(ctx, "digest-2"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "digest-2"); ok {
		t.Fatal("deleted entry must miss")
	}
}

func TestSet_TTLExpires(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "digest-3", []byte(`1`), 30*time.Millisecond)
	c.Wait()

	time.Sleep(60 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "digest-3"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestNew_NonPositiveBudgetSelectsDefault(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_ = c.Set(context.Background(), "k", []byte(`1`), time.Minute)
	c.Wait()
	if _, ok, _ := c.Get(context.Background(), "k"); !ok {
		t.Fatal("default-sized cache should admit a small entry")
	}
}
