package natskv

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestKeyForIsKVSafe(t *testing.T) {
	for _, raw := range []string{
		"page:https://example.com/a?b=c&d=e#frag",
		"page:https://例え.jp/記事",
		"",
	} {
		k := keyFor(raw)
		if !validKey.MatchString(k) {
			t.Errorf("keyFor(%q) = %q is not a valid KV key", raw, k)
		}
		if keyFor(raw) != k {
			t.Errorf("keyFor(%q) is not deterministic", raw)
		}
	}
	if keyFor("a") == keyFor("b") {
		t.Error("distinct keys collided")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := Open(ctx, js, "PROFESSOR_TEST_PAGES", time.Minute)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	key := "page:https://example.com/?q=" + t.Name()
	if err := c.Set(ctx, key, []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := c.Get(ctx, key)
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("Get = %q, %v, %v", got, found, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := c.Get(ctx, key); found {
		t.Fatal("expected miss after Delete")
	}
}
