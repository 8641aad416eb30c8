package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPintuanOrderServiceTest(t *testing.T) (*PintuanOrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:pintuan_order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Pintuan{}, &models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewPintuanOrderService(repository.NewPintuanRepository(db), repository.NewOrderRepository(db))
	return svc, db
}

func seedPintuan(t *testing.T, db *gorm.DB, requiredNum int, force bool) *models.Pintuan {
	t.Helper()
	pintuan := &models.Pintuan{
		ID:               fmt.Sprintf("pt-%d", time.Now().UnixNano()),
		PromotionName:    "三人团",
		RequiredNum:      requiredNum,
		FulfillmentForce: force,
	}
	if err := db.Create(pintuan).Error; err != nil {
		t.Fatalf("create pintuan failed: %v", err)
	}
	return pintuan
}

func seedPintuanOrder(t *testing.T, db *gorm.DB, pintuanID, orderSn, status string) {
	t.Helper()
	order := models.Order{
		OrderSn:     orderSn,
		PintuanID:   pintuanID,
		OrderStatus: status,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func orderStatusBySn(t *testing.T, db *gorm.DB, orderSn string) string {
	t.Helper()
	var order models.Order
	if err := db.First(&order, "order_sn = ?", orderSn).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order.OrderStatus
}

func TestAgglomerateGroupFormed(t *testing.T) {
	svc, db := setupPintuanOrderServiceTest(t)
	pintuan := seedPintuan(t, db, 3, false)
	seedPintuanOrder(t, db, pintuan.ID, "PT-001", constants.OrderStatusPaid)
	seedPintuanOrder(t, db, pintuan.ID, "PT-002", constants.OrderStatusPaid)
	seedPintuanOrder(t, db, pintuan.ID, "PT-003", constants.OrderStatusPaid)
	seedPintuanOrder(t, db, pintuan.ID, "PT-004", constants.OrderStatusUnpaid)

	if err := svc.Agglomerate(context.Background(), pintuan.ID, "PT-001"); err != nil {
		t.Fatalf("Agglomerate error: %v", err)
	}

	for _, sn := range []string{"PT-001", "PT-002", "PT-003"} {
		if got := orderStatusBySn(t, db, sn); got != constants.OrderStatusUndelivered {
			t.Fatalf("order %s: expected UNDELIVERED, got %s", sn, got)
		}
	}
	// 未支付订单不参与成团
	if got := orderStatusBySn(t, db, "PT-004"); got != constants.OrderStatusUnpaid {
		t.Fatalf("unpaid order must stay untouched, got %s", got)
	}
}

func TestAgglomerateGroupFailedCancelsTriggerOrder(t *testing.T) {
	svc, db := setupPintuanOrderServiceTest(t)
	pintuan := seedPintuan(t, db, 3, false)
	seedPintuanOrder(t, db, pintuan.ID, "PT-001", constants.OrderStatusPaid)
	seedPintuanOrder(t, db, pintuan.ID, "PT-002", constants.OrderStatusPaid)

	if err := svc.Agglomerate(context.Background(), pintuan.ID, "PT-001"); err != nil {
		t.Fatalf("Agglomerate error: %v", err)
	}

	if got := orderStatusBySn(t, db, "PT-001"); got != constants.OrderStatusCancelled {
		t.Fatalf("expected trigger order cancelled, got %s", got)
	}
	// 其他成员订单不受本次结算影响
	if got := orderStatusBySn(t, db, "PT-002"); got != constants.OrderStatusPaid {
		t.Fatalf("expected sibling order untouched, got %s", got)
	}
}

func TestAgglomerateForceFulfillment(t *testing.T) {
	svc, db := setupPintuanOrderServiceTest(t)
	pintuan := seedPintuan(t, db, 5, true)
	seedPintuanOrder(t, db, pintuan.ID, "PT-001", constants.OrderStatusPaid)
	seedPintuanOrder(t, db, pintuan.ID, "PT-002", constants.OrderStatusPaid)

	if err := svc.Agglomerate(context.Background(), pintuan.ID, "PT-001"); err != nil {
		t.Fatalf("Agglomerate error: %v", err)
	}

	// 人数不足但强制成团
	for _, sn := range []string{"PT-001", "PT-002"} {
		if got := orderStatusBySn(t, db, sn); got != constants.OrderStatusUndelivered {
			t.Fatalf("order %s: expected UNDELIVERED, got %s", sn, got)
		}
	}
}

func TestAgglomerateIdempotentOnSettledOrder(t *testing.T) {
	svc, db := setupPintuanOrderServiceTest(t)
	pintuan := seedPintuan(t, db, 3, false)
	seedPintuanOrder(t, db, pintuan.ID, "PT-001", constants.OrderStatusCancelled)
	seedPintuanOrder(t, db, pintuan.ID, "PT-002", constants.OrderStatusPaid)

	if err := svc.Agglomerate(context.Background(), pintuan.ID, "PT-001"); err != nil {
		t.Fatalf("Agglomerate error: %v", err)
	}
	if got := orderStatusBySn(t, db, "PT-002"); got != constants.OrderStatusPaid {
		t.Fatalf("repeated delivery must be a no-op, got %s", got)
	}
}

func TestAgglomerateMissingEntities(t *testing.T) {
	svc, db := setupPintuanOrderServiceTest(t)
	pintuan := seedPintuan(t, db, 3, false)

	err := svc.Agglomerate(context.Background(), "missing", "PT-001")
	if !errors.Is(err, ErrPintuanNotFound) {
		t.Fatalf("expected ErrPintuanNotFound, got %v", err)
	}

	err = svc.Agglomerate(context.Background(), pintuan.ID, "PT-missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
