package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/dkolesnikov/bookshelf/internal/dbx"
	"github.com/dkolesnikov/bookshelf/internal/server/auth"
	"github.com/dkolesnikov/bookshelf/internal/server/config"
	"github.com/dkolesnikov/bookshelf/internal/server/models"
	booksrepo "github.com/dkolesnikov/bookshelf/internal/server/repositories/books"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/repomanager"
	usersrepo "github.com/dkolesnikov/bookshelf/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		S3Bucket:                    "covers",
		S3Region:                    "us-east-1",
		S3BaseEndpoint:              "http://127.0.0.1:9000/",
	}
}

type fakeUsersRepo struct {
	getOut *models.User
	getErr error

	createErr   error
	lastCreated *models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.lastCreated = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-1"
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeBooksRepo struct {
	createErr error
	lastBook  *models.Book

	getOut *models.Book
	getErr error

	listOut []*models.Book
	listErr error

	updateOut  *models.Book
	updateErr  error
	lastUpdate *models.BookUpdate

	delErr error

	searchOut  []*models.Book
	searchErr  error
	lastAuthor string
	lastTitle  string

	setCoverErr  error
	lastCoverKey string
}

func (f *fakeBooksRepo) Create(ctx context.Context, b *models.Book) error {
	f.lastBook = b
	return f.createErr
}

func (f *fakeBooksRepo) Get(ctx context.Context, id string) (*models.Book, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeBooksRepo) List(ctx context.Context) ([]*models.Book, error) {
	return f.listOut, f.listErr
}

func (f *fakeBooksRepo) Update(ctx context.Context, id string, upd *models.BookUpdate) (*models.Book, error) {
	f.lastUpdate = upd
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeBooksRepo) Delete(ctx context.Context, id string) error { return f.delErr }

func (f *fakeBooksRepo) Search(ctx context.Context, author, title string) ([]*models.Book, error) {
	f.lastAuthor, f.lastTitle = author, title
	return f.searchOut, f.searchErr
}

func (f *fakeBooksRepo) SetCoverKey(ctx context.Context, id, key string) error {
	f.lastCoverKey = key
	return f.setCoverErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	b *fakeBooksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Books(db dbx.DBTX) booksrepo.Repository      { return m.b }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

// --- tests ---

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{getErr: common.ErrNotFound}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	user, err := s.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if repo.lastCreated.PasswordHash == "pw1" {
		t.Fatalf("plaintext password must not be stored")
	}
	if !auth.CheckPassword("pw1", repo.lastCreated.PasswordHash) {
		t.Fatalf("stored hash must verify the original password")
	}
}

func TestRegister_DuplicateFastPath(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u-1", Username: "alice"}}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	_, err := s.Register(context.Background(), "alice", "pw1")
	if !errors.Is(err, common.ErrDuplicateUsername) {
		t.Fatalf("want common.ErrDuplicateUsername, got %v", err)
	}
	if repo.lastCreated != nil {
		t.Fatalf("no insert must happen when the fast path hits")
	}
}

func TestRegister_DuplicateFromInsert(t *testing.T) {
	// Pre-check passed but a concurrent registration won the race: the
	// unique-index violation from the insert is authoritative.
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{getErr: common.ErrNotFound, createErr: common.ErrDuplicateUsername}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	_, err := s.Register(context.Background(), "alice", "pw1")
	if !errors.Is(err, common.ErrDuplicateUsername) {
		t.Fatalf("want common.ErrDuplicateUsername, got %v", err)
	}
}

func TestRegister_LookupFailure(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{getErr: errors.New("db down")}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	_, err := s.Register(context.Background(), "alice", "pw1")
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("want common.ErrInternal, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{getErr: common.ErrNotFound}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	_, err := s.Login(context.Background(), "ghost", "pw1")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want common.ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	hash, err := auth.HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u-1", Username: "alice", PasswordHash: hash}}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	_, err = s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want common.ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_Success_TokenVerifies(t *testing.T) {
	db, _ := newSQLMockDB(t)
	hash, err := auth.HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u-1", Username: "alice", PasswordHash: hash}}
	s := NewUserService(db, &fakeRepoManager{u: repo}, testConfig())

	token, err := s.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	subject, err := s.Tokens().Verify(token)
	if err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("subject mismatch: got %q", subject)
	}
}
