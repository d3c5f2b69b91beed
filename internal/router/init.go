package router

import (
	"github.com/campusworks/iiitdmj-portal/internal/application"
	"github.com/campusworks/iiitdmj-portal/internal/container"
	pginfra "github.com/campusworks/iiitdmj-portal/internal/infrastructure/postgres"
	handlers "github.com/campusworks/iiitdmj-portal/internal/interface/http"
	"github.com/campusworks/iiitdmj-portal/internal/router/modules"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

// InitModules constructs the application service from container singletons
// and registers every feature module with the router registry. Called once
// during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	users := pginfra.NewUserRepository(container.GetPGPool())
	images := container.GetImageRepo()

	svc := application.NewService(
		users,
		images,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetRabbitPub(),
		container.GetES(),
		cfg.ESStudentsIndex,
	)

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	oauthHandler := handlers.NewOAuthHandler(
		svc,
		container.GetProviders(),
		container.GetLogger(),
		cookies,
		cfg.OAuthSuccessURL,
		cfg.OAuthFailureURL,
	)
	userHandler := handlers.NewUserHandler(svc, container.GetLogger())
	imageHandler := handlers.NewImageHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewOAuthModule(oauthHandler))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewImageModule(imageHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
