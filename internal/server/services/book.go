package services

import (
	"context"
	"database/sql"

	"github.com/dkolesnikov/bookshelf/internal/server/models"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// BookService implements catalog operations over the books repository.
type BookService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewBookService constructs a BookService.
func NewBookService(db *sql.DB, m repomanager.RepositoryManager) *BookService {
	return &BookService{db: db, repomanager: m}
}

// Create stores a new book under a generated ID and returns it.
func (s *BookService) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	book.ID = uuid.NewString()
	if err := s.repomanager.Books(s.db).Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Get returns the book with the given ID or common.ErrNotFound.
func (s *BookService) Get(ctx context.Context, id string) (*models.Book, error) {
	return s.repomanager.Books(s.db).Get(ctx, id)
}

// List returns the whole catalog.
func (s *BookService) List(ctx context.Context) ([]*models.Book, error) {
	return s.repomanager.Books(s.db).List(ctx)
}

// Update applies a partial update: only non-nil fields of upd change the
// stored record. An empty update returns the current record unchanged.
func (s *BookService) Update(ctx context.Context, id string, upd *models.BookUpdate) (*models.Book, error) {
	repo := s.repomanager.Books(s.db)
	if upd.Empty() {
		return repo.Get(ctx, id)
	}
	return repo.Update(ctx, id, upd)
}

// Delete removes the book with the given ID or returns common.ErrNotFound.
func (s *BookService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Books(s.db).Delete(ctx, id)
}

// Search returns books matching the optional author/title substring filters,
// case-insensitively; both filters combine as an intersection.
func (s *BookService) Search(ctx context.Context, author, title string) ([]*models.Book, error) {
	return s.repomanager.Books(s.db).Search(ctx, author, title)
}
