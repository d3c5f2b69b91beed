package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/campusworks/iiitdmj-portal/internal/application"
	"github.com/campusworks/iiitdmj-portal/internal/federation"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
	"github.com/campusworks/iiitdmj-portal/pkg/response"
)

// OAuthHandler drives the federated sign-in round trip. The provider does
// the handshake; the domain gate and user provisioning stay in the service.
type OAuthHandler struct {
	Svc       *userapp.Service
	Providers *federation.Registry
	Logger    *logrus.Logger
	Cookies   *helpers.Manager

	// Browser destinations after the callback.
	SuccessURL string
	FailureURL string
}

func NewOAuthHandler(svc *userapp.Service, providers *federation.Registry, logger *logrus.Logger, cookies *helpers.Manager, successURL, failureURL string) *OAuthHandler {
	return &OAuthHandler{
		Svc:        svc,
		Providers:  providers,
		Logger:     logger,
		Cookies:    cookies,
		SuccessURL: successURL,
		FailureURL: failureURL,
	}
}

// Start GET /api/auth/:provider
func (h *OAuthHandler) Start(c *gin.Context) {
	p, err := h.Providers.Get(c.Param("provider"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "unknown provider", nil)
		return
	}

	state := generateState(c)
	_, challenge := generatePKCE(c)
	c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state, challenge))
}

// Callback GET /api/auth/:provider/callback
func (h *OAuthHandler) Callback(c *gin.Context) {
	p, err := h.Providers.Get(c.Param("provider"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "unknown provider", nil)
		return
	}

	if !validateState(c) {
		h.Logger.Warn("oauth state validation failed")
		c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
		return
	}

	id, err := p.Exchange(c.Request.Context(), code, getPKCEVerifier(c))
	if err != nil {
		h.Logger.WithError(err).Warn("oauth code exchange failed")
		c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
		return
	}

	u, err := h.Svc.CompleteFederated(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, userapp.ErrDomainNotAllowed) {
			// sign-in vetoed, no session is created
			c.Redirect(http.StatusTemporaryRedirect, h.FailureURL+"?error=domain")
			return
		}
		h.Logger.WithError(err).WithField("provider", id.Provider).Error("federated sign-in failed")
		c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
		return
	}

	pair, err := h.Svc.IssueTokens(c.Request.Context(), u)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", u.ID).Error("token issue failed")
		c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.Redirect(http.StatusTemporaryRedirect, h.SuccessURL)
}
