package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/catalog"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

func TestPreorderWaveAdvance(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79161000001")
	product := createPreorderProduct(t, db, "TEST-PRE-001", 3000, 2, 5)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create preorder: %v", err)
	}

	if !order.Items[0].IsPreorder {
		t.Error("Item should be marked preorder")
	}
	if order.Items[0].PreorderWave == nil || *order.Items[0].PreorderWave != 1 {
		t.Errorf("Expected item in wave 1, got %v", order.Items[0].PreorderWave)
	}

	after, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.CurrentWave != 1 || after.CurrentWaveCount != 3 {
		t.Errorf("Expected wave 1 count 3, got wave %d count %d", after.CurrentWave, after.CurrentWaveCount)
	}

	// Two more units fill wave 1 exactly; the counter rolls into wave 2.
	_, err = store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create second preorder: %v", err)
	}

	after, err = store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.CurrentWave != 2 || after.CurrentWaveCount != 0 {
		t.Errorf("Expected wave 2 count 0, got wave %d count %d", after.CurrentWave, after.CurrentWaveCount)
	}
	if after.Mode != models.ModePreorder {
		t.Errorf("Expected mode preorder, got %s", after.Mode)
	}
}

func TestPreorderQuantitySpansWaves(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79161000002")
	product := createPreorderProduct(t, db, "TEST-PRE-002", 3000, 3, 5)

	// 7 units overflow wave 1 and land the counter at 2 in wave 2.
	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 7},
		},
	})
	if err != nil {
		t.Fatalf("Create spanning preorder: %v", err)
	}

	if order.Items[0].PreorderWave == nil || *order.Items[0].PreorderWave != 1 {
		t.Errorf("Line should record wave 1, got %v", order.Items[0].PreorderWave)
	}

	after, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.CurrentWave != 2 || after.CurrentWaveCount != 2 {
		t.Errorf("Expected wave 2 count 2, got wave %d count %d", after.CurrentWave, after.CurrentWaveCount)
	}
}

func TestPreorderExhaustionEntersWaiting(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79161000003")
	product := createPreorderProduct(t, db, "TEST-PRE-003", 3000, 2, 5)

	// 10 units consume both waves completely.
	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 10},
		},
	})
	if err != nil {
		t.Fatalf("Create exhausting preorder: %v", err)
	}

	after, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.Mode != models.ModeWaiting {
		t.Errorf("Expected mode waiting, got %s", after.Mode)
	}
	if after.CurrentWave != 3 {
		t.Errorf("Expected current wave 3, got %d", after.CurrentWave)
	}

	// Subsequent orders are rejected while the product waits.
	_, err = store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 1},
		},
	})

	var unavailable *catalog.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected unavailable error, got: %v", err)
	}
	if unavailable.Reason != catalog.RejectModeWaiting {
		t.Errorf("Expected mode_waiting, got %s", unavailable.Reason)
	}
}
