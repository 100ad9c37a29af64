package books

import (
	"context"

	"github.com/dkolesnikov/bookshelf/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, book *models.Book) error
	Get(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context) ([]*models.Book, error)
	Update(ctx context.Context, id string, upd *models.BookUpdate) (*models.Book, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, author, title string) ([]*models.Book, error)
	SetCoverKey(ctx context.Context, id, key string) error
}
