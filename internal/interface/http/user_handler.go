package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/campusworks/iiitdmj-portal/internal/application"
	"github.com/campusworks/iiitdmj-portal/pkg/response"
	"github.com/campusworks/iiitdmj-portal/pkg/validation"
)

// UserHandler serves the profile and directory routes.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// GetProfile GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(uid)
	if err != nil {
		response.Fail(c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"avatar_url":  u.AvatarURL,
		"roll_number": u.RollNumber,
		"batch":       u.Batch,
		"branch":      u.Branch,
		"branch_name": u.BranchName(),
		"created_at":  u.CreatedAt,
		"updated_at":  u.UpdatedAt,
	}, "profile", nil)
}

// UpdateProfile PUT /api/profile
// Only name and avatar are editable; the academic fields are derived and
// never accepted from the client.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).WithField("user_id", uid).Error("profile update failed")
		}
		response.Fail(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"avatar_url":  u.AvatarURL,
		"roll_number": u.RollNumber,
		"batch":       u.Batch,
		"branch":      u.Branch,
		"branch_name": u.BranchName(),
		"updated_at":  u.UpdatedAt,
	}, "profile updated", nil)
}

// Search GET /api/students/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size := 10
	if v := c.Query("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	hits, err := h.Svc.SearchStudents(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Warn("directory search failed")
		response.Fail(c, http.StatusInternalServerError, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "students", map[string]any{"count": len(hits)})
}
