// Package storage keeps nanny profile photos in Google Cloud Storage.
package storage

import (
	"context"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

type PhotoStore struct {
	client *gcs.Client
	bucket string
}

func NewPhotoStore(client *gcs.Client, bucket string) *PhotoStore {
	return &PhotoStore{client: client, bucket: bucket}
}

// Upload stores a profile photo and returns its public URL.
func (s *PhotoStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r, map[string]string{"kind": "nanny-photo"})
}
