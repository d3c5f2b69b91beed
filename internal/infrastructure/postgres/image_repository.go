package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/repository"
)

// ImageRepository keeps image bytes in a bytea column. Profile images are
// capped at a few MiB before they reach this layer, so no streaming.
type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(img *entity.Image) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO images (user_id, file_name, file_type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, img.UserID, img.FileName, img.FileType, img.Data)

	return row.Scan(&img.ID, &img.CreatedAt)
}

func (r *ImageRepository) GetByID(id string) (*entity.Image, error) {
	// The id arrives straight from the public URL path; anything that is not
	// a UUID cannot match a row and would only fail the column cast.
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	ctx := context.Background()
	img := &entity.Image{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, file_name, file_type, data, created_at
		FROM images
		WHERE id = $1
	`, id)

	if err := row.Scan(&img.ID, &img.UserID, &img.FileName, &img.FileType,
		&img.Data, &img.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return img, nil
}

var _ repository.ImageRepository = (*ImageRepository)(nil)
