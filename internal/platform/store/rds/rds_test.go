package rds

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := Open(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestOpen_EmptyAddr(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestIncrExpire_SetsTTLOnFirstHitOnly(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	ctx := context.Background()

	v, err := c.IncrExpire(ctx, "rate:42:100", 61*time.Second)
	if err != nil || v != 1 {
		t.Fatalf("first IncrExpire = %d, %v", v, err)
	}
	if ttl := mr.TTL("rate:42:100"); ttl != 61*time.Second {
		t.Fatalf("ttl after first hit = %v, want 61s", ttl)
	}

	mr.FastForward(10 * time.Second)
	v, err = c.IncrExpire(ctx, "rate:42:100", 61*time.Second)
	if err != nil || v != 2 {
		t.Fatalf("second IncrExpire = %d, %v", v, err)
	}
	if ttl := mr.TTL("rate:42:100"); ttl != 51*time.Second {
		t.Fatalf("ttl refreshed on second hit: %v", ttl)
	}

	mr.FastForward(52 * time.Second)
	ok, err := c.Exists(ctx, "rate:42:100")
	if err != nil || ok {
		t.Fatalf("key should have expired, exists=%v err=%v", ok, err)
	}
}

func TestDecr_FloorsAtZeroAndDeletes(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.IncrExpire(ctx, "running:7", time.Hour); err != nil {
			t.Fatalf("IncrExpire: %v", err)
		}
	}
	if v, err := c.Decr(ctx, "running:7"); err != nil || v != 1 {
		t.Fatalf("Decr = %d, %v; want 1", v, err)
	}
	if v, err := c.Decr(ctx, "running:7"); err != nil || v != 0 {
		t.Fatalf("Decr = %d, %v; want 0", v, err)
	}
	if mr.Exists("running:7") {
		t.Fatalf("drained counter should be deleted")
	}
	if v, err := c.Decr(ctx, "running:7"); err != nil || v != 0 {
		t.Fatalf("Decr on missing key = %d, %v; want 0", v, err)
	}
}

func TestSetGetExistsDel(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "cache:abc"); err != nil || ok {
		t.Fatalf("Get missing = ok %v err %v", ok, err)
	}
	if err := c.Set(ctx, "cache:abc", `{"confidence":91.5}`, 24*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, "cache:abc")
	if err != nil || !ok || v != `{"confidence":91.5}` {
		t.Fatalf("Get = %q ok %v err %v", v, ok, err)
	}
	if ttl := mr.TTL("cache:abc"); ttl != 24*time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	if err := c.Set(ctx, "prefs:1", "{}", 0); err != nil {
		t.Fatalf("Set no ttl: %v", err)
	}
	if ttl := mr.TTL("prefs:1"); ttl != 0 {
		t.Fatalf("no-expiry key has ttl %v", ttl)
	}

	if err := c.Del(ctx, "cache:abc"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := c.Exists(ctx, "cache:abc"); ok {
		t.Fatalf("key still exists after Del")
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestIncrMax_StopsAtLimit(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		v, ok, err := c.IncrMax(ctx, "running:5", 3, time.Hour)
		if err != nil || !ok || v != want {
			t.Fatalf("IncrMax #%d = %d %v %v", want, v, ok, err)
		}
	}
	v, ok, err := c.IncrMax(ctx, "running:5", 3, time.Hour)
	if err != nil || ok || v != 3 {
		t.Fatalf("IncrMax over limit = %d %v %v", v, ok, err)
	}
	if got, _ := mr.Get("running:5"); got != "3" {
		t.Fatalf("stored value = %q, want 3", got)
	}
	if ttl := mr.TTL("running:5"); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
}
