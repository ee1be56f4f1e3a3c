package middleware

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeliveryDeduper(t *testing.T) {
	d := newMemoryDeliveryDeduper(time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	d.nextGC = now.Add(time.Minute)
	ctx := context.Background()

	key := DeliveryKey("wallet", "bk-5-1700000000000", "4088878653", "0")
	if dup, _ := d.Seen(ctx, key); dup {
		t.Fatalf("first delivery reported as duplicate")
	}
	if dup, _ := d.Seen(ctx, key); !dup {
		t.Fatalf("redelivery not reported as duplicate")
	}
	if dup, _ := d.Seen(ctx, DeliveryKey("wallet", "bk-5-1700000000000", "4088878653", "1006")); dup {
		t.Fatalf("different result code reported as duplicate")
	}

	if err := d.Forget(ctx, key); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if dup, _ := d.Seen(ctx, key); dup {
		t.Fatalf("forgotten key reported as duplicate")
	}

	now = now.Add(2 * time.Minute)
	if dup, _ := d.Seen(ctx, key); dup {
		t.Fatalf("expired key reported as duplicate")
	}
	if len(d.seen) != 1 {
		t.Errorf("expired keys not collected: %d left", len(d.seen))
	}
}

func TestNewDeliveryDeduperFallsBack(t *testing.T) {
	d, err := NewDeliveryDeduper("", "", 0, 0)
	if err != nil {
		t.Fatalf("NewDeliveryDeduper: %v", err)
	}
	if _, ok := d.(*memoryDeliveryDeduper); !ok {
		t.Fatalf("deduper = %T, want in-memory", d)
	}

	d, err = NewDeliveryDeduper("127.0.0.1:1", "", 0, time.Minute)
	if err == nil {
		t.Fatalf("expected ping error for unreachable redis")
	}
	if _, ok := d.(*memoryDeliveryDeduper); !ok {
		t.Fatalf("fallback deduper = %T, want in-memory", d)
	}
}
