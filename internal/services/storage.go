package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ImageStore uploads product images to object storage.
type ImageStore struct {
	client   *minio.Client // nil when storage is not configured
	bucket   string
	endpoint string
	useSSL   bool
}

func NewImageStore(client *minio.Client, bucket, endpoint string, useSSL bool) *ImageStore {
	return &ImageStore{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}
}

func (s *ImageStore) Configured() bool {
	return s.client != nil
}

// UploadProductImage stores the file under a collision-proof object name and
// returns its public URL.
func (s *ImageStore) UploadProductImage(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("image storage not configured")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectName := fmt.Sprintf("%s/%s%s", productID, uuid.NewString(), path.Ext(file.Filename))
	_, err = s.client.PutObject(ctx, s.bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", fmt.Errorf("minio upload: %w", err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectName), nil
}
