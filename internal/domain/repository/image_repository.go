package repository

import "github.com/campusworks/iiitdmj-portal/internal/domain/entity"

// ImageRepository stores and serves raw profile image bytes.
type ImageRepository interface {
	Create(img *entity.Image) error
	GetByID(id string) (*entity.Image, error)
}
