package cache

import "testing"

func TestStockKeyDerivation(t *testing.T) {
	got := StockKey("SECKILL", "promo-1", "sku-9")
	want := "promotion:stock:SECKILL:promo-1:sku-9"
	if got != want {
		t.Fatalf("unexpected stock key, want %q, got %q", want, got)
	}
}

func TestStockKeyNormalizesType(t *testing.T) {
	if StockKey(" seckill ", "p", "s") != StockKey("SECKILL", "p", "s") {
		t.Fatalf("stock key should be case and space insensitive on promotion type")
	}
}

func TestStockKeyDistinctPerSku(t *testing.T) {
	a := StockKey("PINTUAN", "promo-1", "sku-a")
	b := StockKey("PINTUAN", "promo-1", "sku-b")
	if a == b {
		t.Fatalf("different skus must map to different keys: %q", a)
	}
}
