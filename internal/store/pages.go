package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

const pageColumns = `id, slug, title, content, is_published, created_at, updated_at`

func scanPage(row interface{ Scan(...interface{}) error }) (*models.Page, error) {
	page := &models.Page{}
	err := row.Scan(
		&page.ID,
		&page.Slug,
		&page.Title,
		&page.Content,
		&page.IsPublished,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return page, nil
}

type CreatePageRequest struct {
	Slug        string
	Title       string
	Content     string
	IsPublished bool
}

func CreatePage(ctx context.Context, db *sql.DB, req CreatePageRequest) (*models.Page, error) {
	query := `
		INSERT INTO pages (slug, title, content, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + pageColumns

	page, err := scanPage(db.QueryRowContext(ctx, query,
		req.Slug, req.Title, req.Content, req.IsPublished))
	if err != nil {
		if database.IsUniqueViolation(err, "pages_slug_key") {
			return nil, database.ErrDuplicateSlug
		}
		return nil, fmt.Errorf("create page: %w", err)
	}
	return page, nil
}

func GetPage(ctx context.Context, db *sql.DB, id int64) (*models.Page, error) {
	page, err := scanPage(db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPageNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return page, nil
}

func GetPageBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Page, error) {
	page, err := scanPage(db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = $1`, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPageNotFound
		}
		return nil, fmt.Errorf("get page by slug: %w", err)
	}
	return page, nil
}

// ListPages returns every page when publishedOnly is false, otherwise only
// the published ones.
func ListPages(ctx context.Context, db *sql.DB, publishedOnly bool) ([]models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages`
	if publishedOnly {
		query += ` WHERE is_published = TRUE`
	}
	query += ` ORDER BY slug`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

type UpdatePageRequest struct {
	Title       *string
	Content     *string
	IsPublished *bool
}

func UpdatePage(ctx context.Context, db *sql.DB, id int64, req UpdatePageRequest) (*models.Page, error) {
	query := `
		UPDATE pages SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			is_published = COALESCE($4, is_published),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + pageColumns

	page, err := scanPage(db.QueryRowContext(ctx, query,
		id, req.Title, req.Content, req.IsPublished))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPageNotFound
		}
		return nil, fmt.Errorf("update page: %w", err)
	}
	return page, nil
}

func DeletePage(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrPageNotFound
	}
	return nil
}
