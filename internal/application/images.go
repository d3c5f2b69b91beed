package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	repo "github.com/campusworks/iiitdmj-portal/internal/domain/repository"
)

// MaxImageBytes caps profile image uploads at 5 MiB.
const MaxImageBytes = 5 << 20

var (
	ErrImageNotFound = errors.New("image not found")
	ErrImageTooLarge = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	ErrNotAnImage    = errors.New("content type is not an image")
)

// StoreImage persists raw image bytes for the owner and returns the image id.
// Bytes are stored verbatim; the only checks are media type and size.
func (s *Service) StoreImage(ctx context.Context, ownerID string, data []byte, contentType, filename string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotAnImage
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	img := &entity.Image{
		UserID:   ownerID,
		FileName: filename,
		FileType: contentType,
		Data:     data,
	}
	if err := s.Images.Create(img); err != nil {
		return "", err
	}
	return img.ID, nil
}

// GetImage returns the stored bytes and metadata for an image id.
func (s *Service) GetImage(ctx context.Context, id string) (*entity.Image, error) {
	img, err := s.Images.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}

// AvatarFetcher downloads avatar bytes from a provider URL.
type AvatarFetcher func(ctx context.Context, url string) ([]byte, error)

// FetchAvatar is the default AvatarFetcher: a plain GET with a timeout.
func FetchAvatar(ctx context.Context, url string) ([]byte, error) {
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(c, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar fetch: unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
}

// storeProviderAvatar pulls the federated provider's profile picture into
// the image store on first sign-in. Entirely best-effort: any failure is
// logged and the sign-in proceeds without an avatar.
func (s *Service) storeProviderAvatar(ctx context.Context, u *entity.User, avatarURL string) {
	if avatarURL == "" || s.AvatarFetcher == nil {
		return
	}

	data, err := s.AvatarFetcher(ctx, avatarURL)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("provider avatar download failed")
		}
		return
	}
	if len(data) == 0 || len(data) > MaxImageBytes {
		return
	}

	img := &entity.Image{
		UserID:   u.ID,
		FileName: "profile-" + u.ID + ".jpg",
		FileType: "image/jpeg",
		Data:     data,
	}
	if err := s.Images.Create(img); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("provider avatar store failed")
		}
		return
	}

	u.AvatarURL = "/api/images/" + img.ID
	if err := s.Users.Update(u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("avatar url update failed")
	}
}
