package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/iiitdmj-portal/internal/container"
	handlers "github.com/campusworks/iiitdmj-portal/internal/interface/http"
	"github.com/campusworks/iiitdmj-portal/internal/interface/middleware"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

type ImageModule struct {
	Handler *handlers.ImageHandler
	JWT     *helpers.JWTManager
}

func NewImageModule(h *handlers.ImageHandler, jwt *helpers.JWTManager) *ImageModule {
	return &ImageModule{Handler: h, JWT: jwt}
}

func (m *ImageModule) Register(rg *gin.RouterGroup) {
	// Serving stays public so avatar URLs work in <img> tags without auth
	serveLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/images/:imageId", serveLimiter, m.Handler.Get)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/images/upload", m.Handler.Upload)
	}
}
