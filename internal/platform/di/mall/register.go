// internal/platform/di/mall/register.go
package mall

import (
	"net/http"

	mallhttp "marketplace/internal/adapters/in/http/mall"
	mallhandler "marketplace/internal/adapters/in/http/mall/handler"
	"marketplace/internal/adapters/in/http/middleware"
)

// Handler builds the full mall HTTP handler from cont.
// Protected routes fail closed (503) when Firebase Auth is unavailable and auth is not disabled.
func Handler(cont *Container) http.Handler {
	if cont == nil {
		return mallhttp.NewRouter(mallhttp.Deps{})
	}

	cfg := cont.Infra.Config

	userAuth := &middleware.UserAuthMiddleware{
		Disabled: cfg.AuthDisabled,
		Logger:   cont.Logger.Named("user_auth"),
	}
	if cont.Infra.FirebaseAuth != nil {
		userAuth.Verifier = cont.Infra.FirebaseAuth
	} else if !cfg.AuthDisabled {
		cont.Logger.Warn("firebase auth unavailable; /mall/me routes will return 503")
	}

	return mallhttp.NewRouter(mallhttp.Deps{
		Cart:               mallhandler.NewCartHandler(cont.CartService, cont.Logger),
		UserAuth:           userAuth,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             cont.Logger,
	})
}
