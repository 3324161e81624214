package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

// SalesStats aggregates paid orders within a period.
type SalesStats struct {
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	OrdersCount       int64           `json:"orders_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	ProductsSold      int64           `json:"products_sold"`
}

func GetSalesStats(ctx context.Context, db *sql.DB, start, end time.Time) (*SalesStats, error) {
	stats := &SalesStats{PeriodStart: start, PeriodEnd: end}

	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(final_amount), 0), COUNT(*)
		 FROM orders
		 WHERE created_at >= $1 AND created_at <= $2 AND payment_status = $3`,
		start, end, models.PaymentStatusSucceeded).Scan(&stats.TotalSales, &stats.OrdersCount)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(oi.quantity), 0)
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.created_at >= $1 AND o.created_at <= $2 AND o.payment_status = $3`,
		start, end, models.PaymentStatusSucceeded).Scan(&stats.ProductsSold)
	if err != nil {
		return nil, fmt.Errorf("products sold: %w", err)
	}

	if stats.OrdersCount > 0 {
		stats.AverageOrderValue = stats.TotalSales.
			Div(decimal.NewFromInt(stats.OrdersCount)).Round(2)
	}
	return stats, nil
}

type WaveCount struct {
	Wave  int   `json:"wave"`
	Count int64 `json:"count"`
}

// PreorderStats counts preorder lines within a period, broken down by wave.
type PreorderStats struct {
	PeriodStart     time.Time   `json:"period_start"`
	PeriodEnd       time.Time   `json:"period_end"`
	TotalPreorders  int64       `json:"total_preorders"`
	PreordersByWave []WaveCount `json:"preorders_by_wave"`
}

func GetPreorderStats(ctx context.Context, db *sql.DB, start, end time.Time) (*PreorderStats, error) {
	stats := &PreorderStats{
		PeriodStart:     start,
		PeriodEnd:       end,
		PreordersByWave: []WaveCount{},
	}

	rows, err := db.QueryContext(ctx,
		`SELECT oi.preorder_wave, COUNT(oi.id)
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.created_at >= $1 AND o.created_at <= $2 AND oi.is_preorder = TRUE
		 GROUP BY oi.preorder_wave
		 ORDER BY oi.preorder_wave`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("preorders by wave: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wc WaveCount
		if err := rows.Scan(&wc.Wave, &wc.Count); err != nil {
			return nil, fmt.Errorf("scan wave count: %w", err)
		}
		stats.PreordersByWave = append(stats.PreordersByWave, wc)
		stats.TotalPreorders += wc.Count
	}
	return stats, rows.Err()
}

// CustomerStats covers the non-admin user base.
type CustomerStats struct {
	TotalCustomers         int64           `json:"total_customers"`
	CustomersWithOrders    int64           `json:"customers_with_orders"`
	CustomersWithoutOrders int64           `json:"customers_without_orders"`
	ConversionRate         decimal.Decimal `json:"conversion_rate"`
}

func GetCustomerStats(ctx context.Context, db *sql.DB) (*CustomerStats, error) {
	stats := &CustomerStats{}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_admin = FALSE`).Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM orders`).Scan(&stats.CustomersWithOrders)
	if err != nil {
		return nil, fmt.Errorf("count customers with orders: %w", err)
	}

	stats.CustomersWithoutOrders = stats.TotalCustomers - stats.CustomersWithOrders
	if stats.TotalCustomers > 0 {
		stats.ConversionRate = decimal.NewFromInt(stats.CustomersWithOrders).
			Div(decimal.NewFromInt(stats.TotalCustomers)).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	return stats, nil
}

// PromoStats reports promo-code adoption across all orders.
type PromoStats struct {
	OrdersWithPromo    int64           `json:"orders_with_promo"`
	OrdersWithoutPromo int64           `json:"orders_without_promo"`
	TotalDiscountGiven decimal.Decimal `json:"total_discount_given"`
}

func GetPromoStats(ctx context.Context, db *sql.DB) (*PromoStats, error) {
	stats := &PromoStats{}

	err := db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE promo_code_id IS NOT NULL),
			COUNT(*) FILTER (WHERE promo_code_id IS NULL),
			COALESCE(SUM(discount_amount), 0)
		 FROM orders`).Scan(
		&stats.OrdersWithPromo, &stats.OrdersWithoutPromo, &stats.TotalDiscountGiven)
	if err != nil {
		return nil, fmt.Errorf("promo stats: %w", err)
	}
	return stats, nil
}

// ListCustomersForExport returns every non-admin user ordered by id, for the
// CSV export.
func ListCustomersForExport(ctx context.Context, db *sql.DB) ([]models.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_admin = FALSE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers for export: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// OrderExportRow is one line of the orders CSV: the order joined with the
// customer phone.
type OrderExportRow struct {
	OrderNumber    string
	CustomerPhone  string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Status         models.OrderStatus
	PaymentStatus  models.PaymentStatus
	TrackingNumber *string
	CreatedAt      time.Time
	PaidAt         *time.Time
}

func ListOrdersForExport(ctx context.Context, db *sql.DB, start, end *time.Time) ([]OrderExportRow, error) {
	where := "WHERE TRUE"
	args := []interface{}{}
	if start != nil {
		args = append(args, *start)
		where += fmt.Sprintf(" AND o.created_at >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		where += fmt.Sprintf(" AND o.created_at <= $%d", len(args))
	}

	rows, err := db.QueryContext(ctx,
		`SELECT o.order_number, u.phone, o.total_amount, o.discount_amount,
			o.final_amount, o.status, o.payment_status, o.tracking_number,
			o.created_at, o.paid_at
		 FROM orders o
		 JOIN users u ON u.id = o.user_id `+where+`
		 ORDER BY o.created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders for export: %w", err)
	}
	defer rows.Close()

	exports := []OrderExportRow{}
	for rows.Next() {
		var row OrderExportRow
		if err := rows.Scan(&row.OrderNumber, &row.CustomerPhone, &row.TotalAmount,
			&row.DiscountAmount, &row.FinalAmount, &row.Status, &row.PaymentStatus,
			&row.TrackingNumber, &row.CreatedAt, &row.PaidAt); err != nil {
			return nil, fmt.Errorf("scan order export row: %w", err)
		}
		exports = append(exports, row)
	}
	return exports, rows.Err()
}
