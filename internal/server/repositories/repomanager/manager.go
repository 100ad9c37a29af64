package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkolesnikov/bookshelf/internal/dbx"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/books"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Books(db dbx.DBTX) books.Repository
}
