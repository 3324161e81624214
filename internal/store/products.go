package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

const productColumns = `id, article, name, description, price, sizes, size_table,
	care_instructions, order_type, stock_count, preorder_waves_total,
	preorder_wave_capacity, current_wave, current_wave_count,
	is_active, is_archived, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	p := &models.Product{}
	var sizes []byte
	var sizeTable []byte
	err := row.Scan(
		&p.ID,
		&p.Article,
		&p.Name,
		&p.Description,
		&p.Price,
		&sizes,
		&sizeTable,
		&p.CareInstructions,
		&p.Mode,
		&p.StockCount,
		&p.WavesTotal,
		&p.WaveCapacity,
		&p.CurrentWave,
		&p.CurrentWaveCount,
		&p.IsActive,
		&p.IsArchived,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
			return nil, fmt.Errorf("decode sizes: %w", err)
		}
	}
	p.SizeTable = sizeTable
	return p, nil
}

type CreateProductRequest struct {
	Article          string
	Name             string
	Description      *string
	Price            decimal.Decimal
	Sizes            []string
	SizeTable        json.RawMessage
	CareInstructions *string
	Mode             models.AvailabilityMode
	StockCount       int
	WavesTotal       int
	WaveCapacity     int
	MediaURLs        []string
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	sizes, err := json.Marshal(req.Sizes)
	if err != nil {
		return nil, fmt.Errorf("encode sizes: %w", err)
	}

	var product *models.Product
	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		query := `
			INSERT INTO products (article, name, description, price, sizes, size_table,
				care_instructions, order_type, stock_count, preorder_waves_total,
				preorder_wave_capacity, current_wave, current_wave_count,
				is_active, is_archived, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, 0, TRUE, FALSE, NOW(), NOW())
			RETURNING ` + productColumns

		p, err := scanProduct(tx.QueryRowContext(ctx, query,
			req.Article, req.Name, req.Description, req.Price, sizes,
			nullableJSON(req.SizeTable), req.CareInstructions, req.Mode,
			req.StockCount, req.WavesTotal, req.WaveCapacity))
		if err != nil {
			if database.IsUniqueViolation(err, "products_article_key") {
				return database.ErrDuplicateArticle
			}
			return fmt.Errorf("create product: %w", err)
		}

		for idx, url := range req.MediaURLs {
			var media models.ProductMedia
			err := tx.QueryRowContext(ctx,
				`INSERT INTO product_media (product_id, url, position, created_at)
				 VALUES ($1, $2, $3, NOW())
				 RETURNING id, product_id, url, position, created_at`,
				p.ID, url, idx).Scan(
				&media.ID, &media.ProductID, &media.URL, &media.Position, &media.CreatedAt)
			if err != nil {
				return fmt.Errorf("create product media: %w", err)
			}
			p.Media = append(p.Media, media)
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product, err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if err := attachMedia(ctx, db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func GetProductByArticle(ctx context.Context, db *sql.DB, article string) (*models.Product, error) {
	product, err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE article = $1`, article))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by article: %w", err)
	}

	if err := attachMedia(ctx, db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func attachMedia(ctx context.Context, db *sql.DB, product *models.Product) error {
	rows, err := db.QueryContext(ctx,
		`SELECT id, product_id, url, position, created_at
		 FROM product_media WHERE product_id = $1 ORDER BY position`,
		product.ID)
	if err != nil {
		return fmt.Errorf("get product media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var media models.ProductMedia
		if err := rows.Scan(&media.ID, &media.ProductID, &media.URL, &media.Position, &media.CreatedAt); err != nil {
			return fmt.Errorf("scan product media: %w", err)
		}
		product.Media = append(product.Media, media)
	}
	return rows.Err()
}

type ProductFilter struct {
	IsActive   *bool
	IsArchived *bool
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter, skip, limit int) (*OffsetPage, error) {
	where := "WHERE TRUE"
	args := []interface{}{}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.IsArchived != nil {
		args = append(args, *filter.IsArchived)
		where += fmt.Sprintf(" AND is_archived = $%d", len(args))
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	args = append(args, limit, skip)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range products {
		if err := attachMedia(ctx, db, &products[i]); err != nil {
			return nil, err
		}
	}

	return NewOffsetPage(products, total, skip, limit), nil
}

type UpdateProductRequest struct {
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	Sizes            []string
	SizeTable        json.RawMessage
	CareInstructions *string
	Mode             *models.AvailabilityMode
	StockCount       *int
	WavesTotal       *int
	WaveCapacity     *int
	IsActive         *bool
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, req UpdateProductRequest) (*models.Product, error) {
	var sizes interface{}
	if req.Sizes != nil {
		encoded, err := json.Marshal(req.Sizes)
		if err != nil {
			return nil, fmt.Errorf("encode sizes: %w", err)
		}
		sizes = encoded
	}

	query := `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			sizes = COALESCE($5, sizes),
			size_table = COALESCE($6, size_table),
			care_instructions = COALESCE($7, care_instructions),
			order_type = COALESCE($8, order_type),
			stock_count = COALESCE($9, stock_count),
			preorder_waves_total = COALESCE($10, preorder_waves_total),
			preorder_wave_capacity = COALESCE($11, preorder_wave_capacity),
			is_active = COALESCE($12, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		id, req.Name, req.Description, req.Price, sizes, nullableJSON(req.SizeTable),
		req.CareInstructions, req.Mode, req.StockCount, req.WavesTotal,
		req.WaveCapacity, req.IsActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := attachMedia(ctx, db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrProductNotFound
	}
	return nil
}

// ArchiveProduct takes the product off sale: archived and inactive.
func ArchiveProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product, err := scanProduct(db.QueryRowContext(ctx,
		`UPDATE products SET is_archived = TRUE, is_active = FALSE, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("archive product: %w", err)
	}

	if err := attachMedia(ctx, db, product); err != nil {
		return nil, err
	}
	return product, nil
}

// getProductForUpdate locks the product row for the duration of the
// enclosing transaction, serializing concurrent placements on it.
func getProductForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product %d: %w", id, err)
	}
	return product, nil
}

// decrementStock applies a guarded stock decrement; the condition re-checks
// availability even though the row is already locked.
func decrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_count = stock_count - $1, updated_at = NOW()
		 WHERE id = $2 AND stock_count >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrInsufficientStock
	}
	return nil
}

func updateWaveState(ctx context.Context, tx *sql.Tx, productID int64, mode models.AvailabilityMode, wave, waveCount int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET order_type = $2, current_wave = $3, current_wave_count = $4, updated_at = NOW()
		 WHERE id = $1`,
		productID, mode, wave, waveCount)
	if err != nil {
		return fmt.Errorf("update wave state: %w", err)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
