package integration

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/catalog"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

var orderNumberPattern = regexp.MustCompile(`^DWC-\d{8}-[0-9A-F]{8}$`)

func TestCreateOrderInStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000001")
	product := createInStockProduct(t, db, "TEST-ORD-001", 2500, 10)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Errorf("Order number %q does not match expected format", order.OrderNumber)
	}

	expectedTotal := decimal.NewFromInt(5000)
	if !order.TotalAmount.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, order.TotalAmount)
	}
	if !order.FinalAmount.Equal(expectedTotal) {
		t.Errorf("Expected final %s, got %s", expectedTotal, order.FinalAmount)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected status pending, got %s", order.Status)
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("Expected payment status pending, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(order.Items))
	}
	if order.Items[0].IsPreorder {
		t.Error("In-stock item should not be marked preorder")
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockCount != 8 {
		t.Errorf("Expected stock 8, got %d", productAfter.StockCount)
	}

	// Read-back returns exactly what was committed.
	fetched, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if fetched.OrderNumber != order.OrderNumber {
		t.Errorf("Expected order number %s, got %s", order.OrderNumber, fetched.OrderNumber)
	}
	if !fetched.TotalAmount.Equal(order.TotalAmount) {
		t.Errorf("Expected total %s, got %s", order.TotalAmount, fetched.TotalAmount)
	}
}

func TestCreateOrderWithPromoCode(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000002")
	product := createInStockProduct(t, db, "TEST-ORD-002", 2500, 10)

	percent := decimal.NewFromInt(10)
	pc, err := store.CreatePromoCode(ctx, db, store.CreatePromoCodeRequest{
		Code:            "TEST10",
		DiscountPercent: percent,
	})
	if err != nil {
		t.Fatalf("Create promo code: %v", err)
	}

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 1},
		},
		PromoCode: "TEST10",
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if !order.DiscountAmount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected discount 250, got %s", order.DiscountAmount)
	}
	if !order.FinalAmount.Equal(decimal.NewFromInt(2250)) {
		t.Errorf("Expected final 2250, got %s", order.FinalAmount)
	}
	if order.PromoCodeID == nil || *order.PromoCodeID != pc.ID {
		t.Errorf("Expected promo code id %d on order", pc.ID)
	}

	pcAfter, err := store.GetPromoCode(ctx, db, pc.ID)
	if err != nil {
		t.Fatalf("Get promo code: %v", err)
	}
	if pcAfter.CurrentUses != 1 {
		t.Errorf("Expected current_uses 1, got %d", pcAfter.CurrentUses)
	}
}

func TestCreateOrderInvalidPromoCodeIsLenient(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000003")
	product := createInStockProduct(t, db, "TEST-ORD-003", 1000, 5)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "S", Quantity: 1},
		},
		PromoCode: "NOSUCHCODE",
	})
	if err != nil {
		t.Fatalf("Create order with unknown promo code: %v", err)
	}

	if !order.DiscountAmount.IsZero() {
		t.Errorf("Expected zero discount, got %s", order.DiscountAmount)
	}
	if order.PromoCodeID != nil {
		t.Error("Order should not reference a promo code")
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000004")
	product := createInStockProduct(t, db, "TEST-ORD-004", 1000, 5)

	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Size: "M", Quantity: 6},
		},
	})

	var unavailable *catalog.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected unavailable error, got: %v", err)
	}
	if unavailable.Reason != catalog.RejectInsufficientStock {
		t.Errorf("Expected insufficient_stock, got %s", unavailable.Reason)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockCount != 5 {
		t.Errorf("Stock should remain 5, got %d", productAfter.StockCount)
	}
}

func TestCreateOrderRollbackLeavesNoPartialState(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000005")
	ok := createInStockProduct(t, db, "TEST-ORD-005A", 1000, 10)
	short := createInStockProduct(t, db, "TEST-ORD-005B", 1000, 1)

	_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		UserID: user.ID,
		Items: []store.OrderItemRequest{
			{ProductID: ok.ID, Size: "M", Quantity: 2},
			{ProductID: short.ID, Size: "M", Quantity: 5},
		},
	})
	if err == nil {
		t.Fatal("Expected order creation to fail")
	}

	okAfter, err := store.GetProduct(ctx, db, ok.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if okAfter.StockCount != 10 {
		t.Errorf("First product stock should remain 10, got %d", okAfter.StockCount)
	}

	page, err := store.ListOrders(ctx, db, store.OrderFilter{UserID: &user.ID}, 0, 10)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Expected no orders after rollback, got %d", page.Total)
	}
}

func TestConcurrentOrdersRaceForStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000006")
	product := createInStockProduct(t, db, "TEST-ORD-006", 1000, 10)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
				UserID: user.ID,
				Items: []store.OrderItemRequest{
					{ProductID: product.ID, Size: "M", Quantity: 6},
				},
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	rejectedCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		var unavailable *catalog.UnavailableError
		if errors.As(err, &unavailable) && unavailable.Reason == catalog.RejectInsufficientStock {
			rejectedCount++
		} else {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 1 || rejectedCount != 1 {
		t.Errorf("Expected 1 success and 1 rejection, got %d/%d", successCount, rejectedCount)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockCount != 4 {
		t.Errorf("Expected final stock 4, got %d", productAfter.StockCount)
	}
}

func TestListOrdersPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "+79160000007")
	product := createInStockProduct(t, db, "TEST-ORD-007", 500, 100)

	for i := 0; i < 15; i++ {
		_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			UserID: user.ID,
			Items: []store.OrderItemRequest{
				{ProductID: product.ID, Size: "M", Quantity: 1},
			},
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	page1, err := store.ListOrders(ctx, db, store.OrderFilter{UserID: &user.ID}, 0, 10)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}
	if page1.Total != 15 {
		t.Errorf("Expected total 15, got %d", page1.Total)
	}
	if page1.Page != 1 {
		t.Errorf("Expected page 1, got %d", page1.Page)
	}

	page2, err := store.ListOrders(ctx, db, store.OrderFilter{UserID: &user.ID}, 10, 10)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}
	if page2.Page != 2 {
		t.Errorf("Expected page 2, got %d", page2.Page)
	}

	orders, ok := page2.Items.([]models.Order)
	if !ok {
		t.Fatalf("Unexpected items type %T", page2.Items)
	}
	if len(orders) != 5 {
		t.Errorf("Expected 5 orders on page 2, got %d", len(orders))
	}
}
