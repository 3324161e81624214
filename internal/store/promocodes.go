package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

const promoColumns = `id, code, description, discount_percent, discount_amount,
	max_uses, current_uses, valid_from, valid_until, is_active, created_at, updated_at`

func scanPromoCode(row interface{ Scan(...interface{}) error }) (*models.PromoCode, error) {
	pc := &models.PromoCode{}
	err := row.Scan(
		&pc.ID,
		&pc.Code,
		&pc.Description,
		&pc.DiscountPercent,
		&pc.DiscountAmount,
		&pc.MaxUses,
		&pc.CurrentUses,
		&pc.ValidFrom,
		&pc.ValidUntil,
		&pc.IsActive,
		&pc.CreatedAt,
		&pc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

type CreatePromoCodeRequest struct {
	Code            string
	Description     *string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	MaxUses         *int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	ProductIDs      []int64
}

func CreatePromoCode(ctx context.Context, db *sql.DB, req CreatePromoCodeRequest) (*models.PromoCode, error) {
	var pc *models.PromoCode
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		query := `
			INSERT INTO promo_codes (code, description, discount_percent, discount_amount,
				max_uses, current_uses, valid_from, valid_until, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6, $7, TRUE, NOW(), NOW())
			RETURNING ` + promoColumns

		created, err := scanPromoCode(tx.QueryRowContext(ctx, query,
			req.Code, req.Description, req.DiscountPercent, req.DiscountAmount,
			req.MaxUses, req.ValidFrom, req.ValidUntil))
		if err != nil {
			if database.IsUniqueViolation(err, "promo_codes_code_key") {
				return database.ErrDuplicateCode
			}
			return fmt.Errorf("create promo code: %w", err)
		}

		if err := replacePromoScope(ctx, tx, created.ID, req.ProductIDs); err != nil {
			return err
		}
		created.ProductIDs = req.ProductIDs

		pc = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pc, nil
}

func replacePromoScope(ctx context.Context, tx *sql.Tx, promoID int64, productIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM promo_code_products WHERE promo_code_id = $1`, promoID); err != nil {
		return fmt.Errorf("clear promo scope: %w", err)
	}

	for _, productID := range productIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO promo_code_products (promo_code_id, product_id) VALUES ($1, $2)`,
			promoID, productID); err != nil {
			return fmt.Errorf("add product %d to promo scope: %w", productID, err)
		}
	}
	return nil
}

func promoScope(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}, promoID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT product_id FROM promo_code_products WHERE promo_code_id = $1 ORDER BY product_id`,
		promoID)
	if err != nil {
		return nil, fmt.Errorf("get promo scope: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan promo scope: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func GetPromoCode(ctx context.Context, db *sql.DB, id int64) (*models.PromoCode, error) {
	pc, err := scanPromoCode(db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}

	if pc.ProductIDs, err = promoScope(ctx, db, pc.ID); err != nil {
		return nil, err
	}
	return pc, nil
}

// GetPromoCodeByCode looks a code up case-sensitively.
func GetPromoCodeByCode(ctx context.Context, db *sql.DB, code string) (*models.PromoCode, error) {
	pc, err := scanPromoCode(db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("get promo code by code: %w", err)
	}

	if pc.ProductIDs, err = promoScope(ctx, db, pc.ID); err != nil {
		return nil, err
	}
	return pc, nil
}

// getPromoCodeForUpdate locks the code row so the usage counter cannot be
// raced past max_uses by concurrent placements.
func getPromoCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*models.PromoCode, error) {
	pc, err := scanPromoCode(tx.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPromoCodeNotFound
		}
		return nil, fmt.Errorf("lock promo code: %w", err)
	}

	if pc.ProductIDs, err = promoScope(ctx, tx, pc.ID); err != nil {
		return nil, err
	}
	return pc, nil
}

func incrementPromoUses(ctx context.Context, tx *sql.Tx, promoID int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE promo_codes SET current_uses = current_uses + 1, updated_at = NOW() WHERE id = $1`,
		promoID); err != nil {
		return fmt.Errorf("increment promo uses: %w", err)
	}
	return nil
}

func ListPromoCodes(ctx context.Context, db *sql.DB, skip, limit int) (*OffsetPage, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM promo_codes`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count promo codes: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	codes := []models.PromoCode{}
	for rows.Next() {
		pc, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		codes = append(codes, *pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range codes {
		if codes[i].ProductIDs, err = promoScope(ctx, db, codes[i].ID); err != nil {
			return nil, err
		}
	}

	return NewOffsetPage(codes, total, skip, limit), nil
}

type UpdatePromoCodeRequest struct {
	Description     *string
	DiscountPercent *decimal.Decimal
	DiscountAmount  *decimal.Decimal
	MaxUses         *int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	IsActive        *bool
	// Nil leaves the scope untouched; an empty non-nil slice clears it.
	ProductIDs *[]int64
}

func UpdatePromoCode(ctx context.Context, db *sql.DB, id int64, req UpdatePromoCodeRequest) (*models.PromoCode, error) {
	var pc *models.PromoCode
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		query := `
			UPDATE promo_codes SET
				description = COALESCE($2, description),
				discount_percent = COALESCE($3, discount_percent),
				discount_amount = COALESCE($4, discount_amount),
				max_uses = COALESCE($5, max_uses),
				valid_from = COALESCE($6, valid_from),
				valid_until = COALESCE($7, valid_until),
				is_active = COALESCE($8, is_active),
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + promoColumns

		updated, err := scanPromoCode(tx.QueryRowContext(ctx, query,
			id, req.Description, req.DiscountPercent, req.DiscountAmount,
			req.MaxUses, req.ValidFrom, req.ValidUntil, req.IsActive))
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrPromoCodeNotFound
			}
			return fmt.Errorf("update promo code: %w", err)
		}

		if req.ProductIDs != nil {
			if err := replacePromoScope(ctx, tx, updated.ID, *req.ProductIDs); err != nil {
				return err
			}
		}
		if updated.ProductIDs, err = promoScope(ctx, tx, updated.ID); err != nil {
			return err
		}

		pc = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// DeactivatePromoCode is the soft delete used by the admin DELETE route.
func DeactivatePromoCode(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE promo_codes SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate promo code: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrPromoCodeNotFound
	}
	return nil
}

// CountPromoOrders reports committed orders per promo code id.
func CountPromoOrders(ctx context.Context, db *sql.DB, promoIDs []int64) (map[int64]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT promo_code_id, COUNT(*) FROM orders
		 WHERE promo_code_id = ANY($1)
		 GROUP BY promo_code_id`,
		pq.Array(promoIDs))
	if err != nil {
		return nil, fmt.Errorf("count promo orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan promo order count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}
