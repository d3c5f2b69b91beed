package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/iiitdmj-portal/internal/container"
	handlers "github.com/campusworks/iiitdmj-portal/internal/interface/http"
	"github.com/campusworks/iiitdmj-portal/internal/interface/middleware"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

// UserModule wires profile and directory routes.
// Protected: GET /api/profile, PUT /api/profile, GET /api/students/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.GET("/students/search", m.Handler.Search)
	}
}
