package queue

import (
	"testing"
	"time"
)

func TestPromotionUniqueKeyFormat(t *testing.T) {
	got := PromotionUniqueKey("SECKILL", "promo-1")
	want := "{TIME_TRIGGER_SECKILL}_promo-1"
	if got != want {
		t.Fatalf("unexpected unique key, want %q, got %q", want, got)
	}
}

func TestPromotionUniqueKeyDependsOnTypeAndIDOnly(t *testing.T) {
	if PromotionUniqueKey("SECKILL", "promo-1") != PromotionUniqueKey("SECKILL", "promo-1") {
		t.Fatal("unique key must be deterministic")
	}
	if PromotionUniqueKey("SECKILL", "promo-1") == PromotionUniqueKey("PINTUAN", "promo-1") {
		t.Fatal("unique key must distinguish promotion types")
	}
}

func TestDecodeTriggerPayloadPromotionShape(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := []byte(`{"promotion_id":"promo-1","promotion_status":"START","promotion_type":"SECKILL","end_time":"2026-03-01T12:00:00Z"}`)
	got := DecodeTriggerPayload(raw)
	if got.Promotion == nil {
		t.Fatal("expected promotion variant")
	}
	if got.PintuanOrder != nil {
		t.Fatal("pintuan variant must be empty for promotion payload")
	}
	if got.Promotion.PromotionID != "promo-1" || got.Promotion.PromotionStatus != "START" {
		t.Fatalf("unexpected promotion message: %+v", got.Promotion)
	}
	if got.Promotion.EndTime == nil || !got.Promotion.EndTime.Equal(end) {
		t.Fatalf("unexpected end time: %v", got.Promotion.EndTime)
	}
}

func TestDecodeTriggerPayloadPintuanShape(t *testing.T) {
	raw := []byte(`{"pintuan_id":"pt-1","order_sn":"SN-001"}`)
	got := DecodeTriggerPayload(raw)
	if got.PintuanOrder == nil {
		t.Fatal("expected pintuan order variant")
	}
	if got.Promotion != nil {
		t.Fatal("promotion variant must be empty for pintuan payload")
	}
	if got.PintuanOrder.PintuanID != "pt-1" || got.PintuanOrder.OrderSn != "SN-001" {
		t.Fatalf("unexpected pintuan message: %+v", got.PintuanOrder)
	}
}

func TestDecodeTriggerPayloadPromotionTakesPrecedence(t *testing.T) {
	// 两个 id 字段同时出现时只按促销消息路由
	raw := []byte(`{"promotion_id":"promo-1","promotion_status":"END","promotion_type":"PINTUAN","pintuan_id":"pt-1","order_sn":"SN-001"}`)
	got := DecodeTriggerPayload(raw)
	if got.Promotion == nil {
		t.Fatal("expected promotion variant to win")
	}
	if got.PintuanOrder != nil {
		t.Fatal("pintuan variant must not be populated when promotion id present")
	}
}

func TestDecodeTriggerPayloadUnrecognized(t *testing.T) {
	for _, raw := range [][]byte{
		[]byte(`{"foo":"bar"}`),
		[]byte(`{}`),
		[]byte(`not-json`),
	} {
		got := DecodeTriggerPayload(raw)
		if got.Promotion != nil || got.PintuanOrder != nil {
			t.Fatalf("expected unrecognized payload for %s", raw)
		}
	}
}
