package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/campusworks/iiitdmj-portal/internal/application"
	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/repository"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

type memImageRepo struct {
	byID map[string]*entity.Image
}

func (m *memImageRepo) Create(img *entity.Image) error {
	img.ID = "img-1"
	img.CreatedAt = time.Now()
	cp := *img
	m.byID[img.ID] = &cp
	return nil
}

func (m *memImageRepo) GetByID(id string) (*entity.Image, error) {
	img, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

type noUserRepo struct{}

func (noUserRepo) Create(*entity.User) error                 { return errors.New("unused") }
func (noUserRepo) GetByID(string) (*entity.User, error)      { return nil, repository.ErrNotFound }
func (noUserRepo) GetByEmail(string) (*entity.User, error)   { return nil, repository.ErrNotFound }
func (noUserRepo) Update(*entity.User) error                 { return errors.New("unused") }
func (noUserRepo) UpdateRollDetails(string, identity.Details) error {
	return errors.New("unused")
}

func newImageRouter(t *testing.T, images *memImageRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := userapp.NewService(noUserRepo{}, images, helpers.NewJWTManager("a", "r", time.Minute, time.Hour), nil, logger, nil, nil, "")
	h := NewImageHandler(svc, logger)

	r := gin.New()
	r.GET("/api/images/:imageId", h.Get)
	r.POST("/api/images/upload", func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	}, h.Upload)
	return r
}

func TestImageGet(t *testing.T) {
	images := &memImageRepo{byID: map[string]*entity.Image{
		"img-1": {ID: "img-1", UserID: "u1", FileName: "me.png", FileType: "image/png", Data: []byte{0x89, 0x50}},
	}}
	r := newImageRouter(t, images)

	t.Run("serves verbatim bytes with immutable caching", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images/img-1", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
		assert.Equal(t, []byte{0x89, 0x50}, w.Body.Bytes())
	})

	t.Run("missing image is a 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images/nope", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestImageUpload(t *testing.T) {
	buildForm := func(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("stores an image and returns its id", func(t *testing.T) {
		images := &memImageRepo{byID: map[string]*entity.Image{}}
		r := newImageRouter(t, images)

		body, ct := buildForm(t, "me.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/images/upload", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, images.byID, 1)
		assert.Equal(t, "u1", images.byID["img-1"].UserID)
		assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, images.byID["img-1"].Data)
	})

	t.Run("rejects non-image content", func(t *testing.T) {
		images := &memImageRepo{byID: map[string]*entity.Image{}}
		r := newImageRouter(t, images)

		body, ct := buildForm(t, "cv.pdf", "application/pdf", []byte("%PDF-"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/images/upload", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, images.byID)
	})
}
