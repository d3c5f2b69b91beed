package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/campusworks/iiitdmj-portal/internal/application"
	"github.com/campusworks/iiitdmj-portal/pkg/response"
)

// ImageHandler serves profile image upload and retrieval.
type ImageHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewImageHandler(svc *userapp.Service, logger *logrus.Logger) *ImageHandler {
	return &ImageHandler{Svc: svc, Logger: logger}
}

// Upload POST /api/images/upload (auth, multipart field "file")
func (h *ImageHandler) Upload(c *gin.Context) {
	uid := c.GetString("userID")
	if uid == "" {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "no file provided", nil)
		return
	}
	if fh.Size > userapp.MaxImageBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, "image too large", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, userapp.MaxImageBytes+1))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}

	id, err := h.Svc.StoreImage(c.Request.Context(), uid, data, fh.Header.Get("Content-Type"), fh.Filename)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).WithField("user_id", uid).Error("image store failed")
		}
		response.Fail(c, status, msg, nil)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"image_id": id}, "image uploaded successfully", nil)
}

// Get GET /api/images/:imageId (public)
// Bytes are immutable once stored, hence the year-long cache directive.
func (h *ImageHandler) Get(c *gin.Context) {
	img, err := h.Svc.GetImage(c.Request.Context(), c.Param("imageId"))
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("image retrieval failed")
		}
		response.Fail(c, status, msg, nil)
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Disposition", `inline; filename="`+img.FileName+`"`)
	c.Header("Content-Length", strconv.Itoa(len(img.Data)))
	c.Data(http.StatusOK, img.FileType, img.Data)
}
