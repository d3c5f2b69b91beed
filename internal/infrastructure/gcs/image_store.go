// Package gcs provides an object-storage backend for profile images.
// Selected over the default Postgres backend when a bucket is configured.
package gcs

import (
	"context"
	"errors"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/repository"
)

// NewClient creates a GCS client. With an empty credsPath, Application
// Default Credentials are used.
func NewClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// ImageStore persists image bytes as objects under images/<id>. Owner and
// original filename travel in object metadata so retrieval can reproduce
// the upload verbatim.
type ImageStore struct {
	client *storage.Client
	bucket string
}

func NewImageStore(client *storage.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

func objectPath(id string) string { return "images/" + id }

func (s *ImageStore) Create(img *entity.Image) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id := uuid.NewString()
	wc := s.client.Bucket(s.bucket).Object(objectPath(id)).NewWriter(ctx)
	wc.ContentType = img.FileType
	wc.ChunkSize = 0 // small objects, single request
	wc.Metadata = map[string]string{
		"user_id":   img.UserID,
		"file_name": img.FileName,
	}
	if _, err := wc.Write(img.Data); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}

	img.ID = id
	img.CreatedAt = time.Now().UTC()
	return nil
}

func (s *ImageStore) GetByID(id string) (*entity.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(objectPath(id))
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	rc, err := obj.NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	return &entity.Image{
		ID:        id,
		UserID:    attrs.Metadata["user_id"],
		FileName:  attrs.Metadata["file_name"],
		FileType:  attrs.ContentType,
		Data:      data,
		CreatedAt: attrs.Created,
	}, nil
}

var _ repository.ImageRepository = (*ImageStore)(nil)
