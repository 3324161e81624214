package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/catalog"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/promo"
)

const orderColumns = `id, user_id, order_number, total_amount, discount_amount,
	final_amount, status, payment_status, tracking_number, delivery_address,
	cdek_point, payment_id, payment_url, receipt_url, promo_code_id,
	created_at, updated_at, paid_at, shipped_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNumber,
		&o.TotalAmount,
		&o.DiscountAmount,
		&o.FinalAmount,
		&o.Status,
		&o.PaymentStatus,
		&o.TrackingNumber,
		&o.DeliveryAddress,
		&o.CDEKPoint,
		&o.PaymentID,
		&o.PaymentURL,
		&o.ReceiptURL,
		&o.PromoCodeID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PaidAt,
		&o.ShippedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// generateOrderNumber builds the externally visible identifier:
// DWC-YYYYMMDD (UTC) followed by 8 uppercase hex characters from a
// cryptographically random source.
func generateOrderNumber() (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("DWC-%s-%s",
		time.Now().UTC().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(suffix))), nil
}

type CreateOrderRequest struct {
	UserID          int64
	Items           []OrderItemRequest
	DeliveryAddress *string
	CDEKPoint       *string
	PromoCode       string
}

type OrderItemRequest struct {
	ProductID int64
	Size      string
	Quantity  int
}

// CreateOrder runs the order placement transaction: it locks the referenced
// products, resolves availability for every line, applies the promo code,
// persists the order with its items and applies stock/wave/promo side
// effects in a single commit. On an order-number collision the whole
// transaction is retried with a fresh suffix.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	const maxNumberAttempts = 5

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order, err := placeOrder(ctx, db, req)
		if err != nil && database.IsUniqueViolation(err, "orders_order_number_key") {
			continue
		}
		return order, err
	}
	return nil, fmt.Errorf("order number collision persisted after %d attempts", maxNumberAttempts)
}

func placeOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		// Lock products in id order so concurrent placements on
		// overlapping sets cannot deadlock.
		productIDs := uniqueProductIDs(req.Items)
		products := make(map[int64]*models.Product, len(productIDs))
		for _, id := range productIDs {
			p, err := getProductForUpdate(ctx, tx, id)
			if err != nil {
				if err == database.ErrProductNotFound {
					return &catalog.UnavailableError{
						ProductID: id,
						Reason:    catalog.RejectUnknownProduct,
					}
				}
				return err
			}
			products[id] = p
		}

		type acceptedLine struct {
			req OrderItemRequest
			res catalog.Resolution
		}

		subtotal := decimal.Zero
		lines := make([]acceptedLine, 0, len(req.Items))
		for _, item := range req.Items {
			p := products[item.ProductID]
			res := catalog.Resolve(p, item.Quantity)
			if !res.Accepted {
				return &catalog.UnavailableError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Reason:      res.Reason,
				}
			}
			subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			lines = append(lines, acceptedLine{req: item, res: res})
		}

		// A missing or invalid promo code does not fail the order;
		// it just yields no discount.
		promoResult := promo.Result{Outcome: promo.OutcomeNone, Discount: decimal.Zero}
		if req.PromoCode != "" {
			pc, err := getPromoCodeForUpdate(ctx, tx, req.PromoCode)
			if err != nil && err != database.ErrPromoCodeNotFound {
				return err
			}
			promoResult = promo.Evaluate(pc, productIDs, subtotal, time.Now().UTC())
		}

		discount := promoResult.Discount.Round(2)
		final := subtotal.Sub(discount).Round(2)

		orderNumber, err := generateOrderNumber()
		if err != nil {
			return err
		}

		var promoCodeID *int64
		if promoResult.Outcome == promo.OutcomeApplied {
			promoCodeID = &promoResult.CodeID
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number, total_amount, discount_amount,
				final_amount, status, payment_status, delivery_address, cdek_point,
				promo_code_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			 RETURNING id`,
			req.UserID, orderNumber, subtotal, discount, final,
			models.OrderStatusPending, models.PaymentStatusPending,
			req.DeliveryAddress, req.CDEKPoint, promoCodeID).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range lines {
			p := products[line.req.ProductID]
			isPreorder := line.res.Kind == catalog.AcceptPreorder
			var wave *int
			if isPreorder {
				w := line.res.Wave
				wave = &w
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, size, quantity, price,
					is_preorder, preorder_wave, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
				orderID, p.ID, line.req.Size, line.req.Quantity, p.Price, isPreorder, wave)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		// Side effects: stock decrements per line, wave counters evolved
		// in memory on the locked snapshot and written back per product.
		waveTouched := make(map[int64]bool)
		for _, line := range lines {
			p := products[line.req.ProductID]
			switch line.res.Kind {
			case catalog.AcceptInStock:
				if err := decrementStock(ctx, tx, p.ID, line.req.Quantity); err != nil {
					return err
				}
			case catalog.AcceptPreorder:
				advanceWave(p, line.req.Quantity)
				waveTouched[p.ID] = true
			}
		}
		for id := range waveTouched {
			p := products[id]
			if err := updateWaveState(ctx, tx, p.ID, p.Mode, p.CurrentWave, p.CurrentWaveCount); err != nil {
				return err
			}
		}

		if promoCodeID != nil {
			if err := incrementPromoUses(ctx, tx, *promoCodeID); err != nil {
				return err
			}
		}

		order, err = getOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// advanceWave adds the quantity to the current wave and rolls the overflow
// into subsequent waves. When the campaign runs out of waves the product
// saturates into waiting mode with current_wave = waves_total + 1; the
// leftover count is kept as carried over.
func advanceWave(p *models.Product, quantity int) {
	p.CurrentWaveCount += quantity
	for p.CurrentWaveCount >= p.WaveCapacity && p.CurrentWave <= p.WavesTotal {
		p.CurrentWaveCount -= p.WaveCapacity
		p.CurrentWave++
	}
	if p.CurrentWave > p.WavesTotal {
		p.Mode = models.ModeWaiting
	}
}

func uniqueProductIDs(items []OrderItemRequest) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func getOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("fetch created order: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, order_id, product_id, size, quantity, price, is_preorder, preorder_wave, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("fetch order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Size,
			&item.Quantity, &item.UnitPrice, &item.IsPreorder, &item.PreorderWave,
			&item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := attachOrderItems(ctx, db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrderByNumber(ctx context.Context, db *sql.DB, number string) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	if err := attachOrderItems(ctx, db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrderByPaymentID(ctx context.Context, db *sql.DB, paymentID string) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_id = $1`, paymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by payment id: %w", err)
	}

	if err := attachOrderItems(ctx, db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByPaymentIDForUpdate locks the order row while a payment event
// is applied to it.
func GetOrderByPaymentIDForUpdate(ctx context.Context, tx *sql.Tx, paymentID string) (*models.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order by payment id: %w", err)
	}
	return order, nil
}

func attachOrderItems(ctx context.Context, db *sql.DB, order *models.Order) error {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, size, quantity, price, is_preorder, preorder_wave, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Size,
			&item.Quantity, &item.UnitPrice, &item.IsPreorder, &item.PreorderWave,
			&item.CreatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

type OrderFilter struct {
	UserID *int64
	Status *models.OrderStatus
}

func ListOrders(ctx context.Context, db *sql.DB, filter OrderFilter, skip, limit int) (*OffsetPage, error) {
	where := "WHERE TRUE"
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, limit, skip)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		if err := attachOrderItems(ctx, db, &orders[i]); err != nil {
			return nil, err
		}
	}

	return NewOffsetPage(orders, total, skip, limit), nil
}

type UpdateOrderRequest struct {
	Status          *models.OrderStatus
	TrackingNumber  *string
	DeliveryAddress *string
	CDEKPoint       *string
}

// UpdateOrder applies an admin edit. Moving to shipped stamps shipped_at.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, req UpdateOrderRequest) (*models.Order, error) {
	setShippedAt := req.Status != nil && *req.Status == models.OrderStatusShipped

	order, err := scanOrder(db.QueryRowContext(ctx,
		`UPDATE orders SET
			status = COALESCE($2, status),
			tracking_number = COALESCE($3, tracking_number),
			delivery_address = COALESCE($4, delivery_address),
			cdek_point = COALESCE($5, cdek_point),
			shipped_at = CASE WHEN $6 THEN NOW() ELSE shipped_at END,
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, req.Status, req.TrackingNumber, req.DeliveryAddress, req.CDEKPoint, setShippedAt))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := attachOrderItems(ctx, db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// SetOrderPaymentInfo records the provider payment id and confirmation URL
// created for the order.
func SetOrderPaymentInfo(ctx context.Context, db *sql.DB, orderID int64, paymentID, paymentURL string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET payment_id = $2, payment_url = $3, updated_at = NOW() WHERE id = $1`,
		orderID, paymentID, paymentURL)
	if err != nil {
		return fmt.Errorf("set order payment info: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrOrderNotFound
	}
	return nil
}

// UpdateOrderPaymentState writes the outcome of a payment-state transition.
func UpdateOrderPaymentState(ctx context.Context, tx *sql.Tx, orderID int64,
	paymentStatus models.PaymentStatus, status models.OrderStatus, setPaidAt bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET
			payment_status = $2,
			status = $3,
			paid_at = CASE WHEN $4 THEN NOW() ELSE paid_at END,
			updated_at = NOW()
		 WHERE id = $1`,
		orderID, paymentStatus, status, setPaidAt)
	if err != nil {
		return fmt.Errorf("update order payment state: %w", err)
	}
	return nil
}
