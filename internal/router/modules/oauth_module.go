package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/iiitdmj-portal/internal/container"
	handlers "github.com/campusworks/iiitdmj-portal/internal/interface/http"
	"github.com/campusworks/iiitdmj-portal/internal/interface/middleware"
)

type OAuthModule struct {
	Handler *handlers.OAuthHandler
}

func NewOAuthModule(h *handlers.OAuthHandler) *OAuthModule {
	return &OAuthModule{Handler: h}
}

func (m *OAuthModule) Register(rg *gin.RouterGroup) {
	// Redirect flows are browser-driven, so limits stay per IP
	startLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	callbackLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/auth/:provider", startLimiter, m.Handler.Start)
	rg.GET("/auth/:provider/callback", callbackLimiter, m.Handler.Callback)
}
