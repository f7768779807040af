// Package documents archives the original uploaded PDFs in object storage.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const (
	DefaultBucket = "patient-documents"
	contentType   = "application/pdf"
)

var ErrNotFound = errors.New("document not found")

// ObjectStorage is the slice of object storage the archive uses.
// MinioStorage implements it.
type ObjectStorage interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, minio.ObjectInfo, error)
}

type Archive struct {
	storage ObjectStorage
	bucket  string
	region  string
	logger  *zap.Logger
	now     func() time.Time
}

func NewArchive(storage ObjectStorage, bucket, region string, logger *zap.Logger) *Archive {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Archive{
		storage: storage,
		bucket:  bucket,
		region:  region,
		logger:  logger,
		now:     time.Now,
	}
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.storage.BucketExists(ctx, a.bucket)
	if err != nil {
		// Some gateways answer an existing bucket with a "Found" error.
		if err.Error() == "Found" {
			a.logger.Info("bucket verified", zap.String("bucket", a.bucket))
			return nil
		}
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		a.logger.Info("bucket verified", zap.String("bucket", a.bucket))
		return nil
	}

	err = a.storage.MakeBucket(ctx, a.bucket, a.region)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("bucket created", zap.String("bucket", a.bucket))
	return nil
}

// Put stores data and returns its object key, YYYY/MM/DD/<uuid>.pdf.
func (a *Archive) Put(ctx context.Context, filename string, data []byte) (string, error) {
	key := path.Join(a.now().UTC().Format("2006/01/02"), uuid.New().String()+".pdf")
	if err := a.storage.PutObject(ctx, a.bucket, key, data, contentType); err != nil {
		a.logger.Error("failed to archive document",
			zap.String("filename", filename),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to archive %s: %w", filename, err)
	}
	a.logger.Info("document archived",
		zap.String("filename", filename),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return key, nil
}

// Get opens an archived document. The caller closes the reader.
func (a *Archive) Get(ctx context.Context, key string) (io.ReadCloser, minio.ObjectInfo, error) {
	return a.storage.GetObject(ctx, a.bucket, key)
}

// MinioStorage adapts a MinIO client to ObjectStorage.
type MinioStorage struct {
	Client *minio.Client
}

func (s MinioStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.Client.BucketExists(ctx, bucket)
}

func (s MinioStorage) MakeBucket(ctx context.Context, bucket, region string) error {
	return s.Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (s MinioStorage) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	info, err := s.Client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if info.Size != int64(len(data)) {
		return fmt.Errorf("stored %d of %d bytes", info.Size, len(data))
	}
	return nil
}

func (s MinioStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, minio.ObjectInfo, error) {
	obj, err := s.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, minio.ObjectInfo{}, ErrNotFound
		}
		return nil, minio.ObjectInfo{}, err
	}
	return obj, info, nil
}
