package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mentor/backend/config"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

const (
	BucketProfilePictures = "profile-pictures"
	BucketResumes         = "resumes"
)

var ErrInvalidObjectKey = errors.New("invalid object key")

// FileStore persists uploaded files and returns their public URL.
type FileStore interface {
	Save(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
}

func NewFileStore(cfg *config.Config) (FileStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.StorageDir, cfg.StoragePublicURL), nil
	case "azure":
		return NewAzureBlobStore(cfg.AzureStorageConnectionString)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// LocalStore writes objects below Root/<bucket>/<key>.
type LocalStore struct {
	Root      string
	PublicURL string
}

func NewLocalStore(root, publicURL string) *LocalStore {
	return &LocalStore{Root: root, PublicURL: strings.TrimRight(publicURL, "/")}
}

func (s *LocalStore) Save(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath, err := objectKey(bucket, key)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(s.Root, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.PublicURL + "/" + objectPath, nil
}

// AzureBlobStore keeps one container per bucket.
type AzureBlobStore struct {
	client *azblob.Client
}

func NewAzureBlobStore(connectionString string) (*AzureBlobStore, error) {
	if connectionString == "" {
		return nil, errors.New("AZURE_STORAGE_CONNECTION_STRING is required for the azure storage driver")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &AzureBlobStore{client: client}, nil
}

func (s *AzureBlobStore) Save(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	if _, err := objectKey(bucket, key); err != nil {
		return "", err
	}

	_, err := s.client.UploadBuffer(ctx, bucket, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	return strings.TrimRight(s.client.URL(), "/") + "/" + bucket + "/" + key, nil
}

// objectKey joins bucket and key, rejecting anything that escapes the bucket.
func objectKey(bucket, key string) (string, error) {
	if bucket == "" || key == "" || strings.Contains(bucket, "/") {
		return "", ErrInvalidObjectKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key || strings.Contains(key, "..") {
		return "", ErrInvalidObjectKey
	}
	return bucket + "/" + cleaned, nil
}
