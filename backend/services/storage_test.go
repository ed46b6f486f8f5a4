package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mentor/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/storage/")

	url, err := store.Save(context.Background(), BucketProfilePictures, "7/avatar.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/profile-pictures/7/avatar.png", url)

	data, err := os.ReadFile(filepath.Join(root, "profile-pictures", "7", "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/storage")

	for _, key := range []string{"", "../etc/passwd", "7/../../x", "/abs", "a//b"} {
		_, err := store.Save(context.Background(), BucketResumes, key, "application/pdf", []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidObjectKey, key)
	}

	_, err := store.Save(context.Background(), "bad/bucket", "k", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidObjectKey)
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/storage")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, BucketResumes, "1/cv.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileStore(t *testing.T) {
	store, err := NewFileStore(&config.Config{StorageDriver: "local", StorageDir: t.TempDir(), StoragePublicURL: "/storage"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = NewFileStore(&config.Config{StorageDriver: "azure"})
	assert.Error(t, err)

	_, err = NewFileStore(&config.Config{StorageDriver: "s3"})
	assert.Error(t, err)
}

func TestNewAzureBlobStore(t *testing.T) {
	conn := "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
		"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
		"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

	store, err := NewAzureBlobStore(conn)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), BucketResumes, "../x", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidObjectKey)
}
