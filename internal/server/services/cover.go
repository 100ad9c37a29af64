package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/dkolesnikov/bookshelf/internal/dbx"
	sc "github.com/dkolesnikov/bookshelf/internal/server/config"
	"github.com/dkolesnikov/bookshelf/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// CoverService hands out presigned URLs for book cover objects. Uploads and
// downloads go straight to the S3-compatible backend; the catalog only
// stores the object key.
type CoverService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewCoverService constructs a CoverService.
func NewCoverService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *CoverService {
	return &CoverService{db: db, repomanager: m, config: cfg}
}

func randomCoverKey() string {
	d := time.Now()
	return fmt.Sprintf("covers/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *CoverService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetUploadURL verifies the book exists, presigns a PUT URL for a fresh
// cover key, and records the key on the book. The existence check and the
// key write share one transaction so a concurrent delete cannot leave a
// dangling key.
func (s *CoverService) GetUploadURL(ctx context.Context, bookID string) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := randomCoverKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Books(tx)
		if _, err := repo.Get(ctx, bookID); err != nil {
			return err
		}
		return repo.SetCoverKey(ctx, bookID, key)
	}); err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetDownloadURL presigns a GET URL for the stored cover of the given book.
// A book without a cover yields common.ErrNotFound.
func (s *CoverService) GetDownloadURL(ctx context.Context, bookID string) (string, error) {
	book, err := s.repomanager.Books(s.db).Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if book.CoverKey == "" {
		return "", common.ErrNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &book.CoverKey,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
