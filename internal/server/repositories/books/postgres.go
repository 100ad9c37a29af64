// Package books provides the PostgreSQL-backed repository for catalog
// records, including substring search and partial updates.
package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/dkolesnikov/bookshelf/internal/dbx"
	"github.com/dkolesnikov/bookshelf/internal/server/models"
)

const bookColumns = "id, title, author, date, description, cover_key"

// PostgresRepository implements book storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (id, title, author, date, description)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.Date, book.Description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book := &models.Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.Date, &book.Description, &book.CoverKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return book, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title, id`
	return r.queryBooks(ctx, query)
}

// Update applies only the fields set in upd; nil fields keep their stored
// values via COALESCE. Returns the updated row or common.ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd *models.BookUpdate) (*models.Book, error) {
	query := `
		UPDATE books SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			date = COALESCE($4, date),
			description = COALESCE($5, description)
		WHERE id = $1
		RETURNING ` + bookColumns

	book := &models.Book{}
	err := r.db.QueryRowContext(ctx, query,
		id, upd.Title, upd.Author, upd.Date, upd.Description).Scan(
		&book.ID, &book.Title, &book.Author, &book.Date, &book.Description, &book.CoverKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return book, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Search returns books whose author and/or title contain the given
// substrings, case-insensitively. Empty filters are skipped; with no filters
// every book is returned.
func (r *PostgresRepository) Search(ctx context.Context, author, title string) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`

	var conds []string
	var args []any
	if author != "" {
		args = append(args, "%"+author+"%")
		conds = append(conds, fmt.Sprintf("author ILIKE $%d", len(args)))
	}
	if title != "" {
		args = append(args, "%"+title+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title, id"

	return r.queryBooks(ctx, query, args...)
}

func (r *PostgresRepository) SetCoverKey(ctx context.Context, id, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE books SET cover_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) queryBooks(ctx context.Context, query string, args ...any) ([]*models.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select books: %w", err)
	}
	defer rows.Close()

	result := []*models.Book{}
	for rows.Next() {
		var item models.Book
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Author, &item.Date, &item.Description, &item.CoverKey,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
