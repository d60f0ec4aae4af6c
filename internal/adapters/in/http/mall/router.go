// internal/adapters/in/http/mall/router.go
package mall

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mallhandler "marketplace/internal/adapters/in/http/mall/handler"
	"marketplace/internal/adapters/in/http/middleware"
)

// Deps is the buyer-facing (mall) handler set.
type Deps struct {
	Cart *mallhandler.CartHandler

	// UserAuth protects every /mall/me route.
	UserAuth *middleware.UserAuthMiddleware

	CORSAllowedOrigins []string
	Logger             *zap.Logger
}

// NewRouter builds the mall HTTP surface.
// Chain order: CORS (outermost) > request id > access log > recover > auth.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger.Named("http")))
	r.Use(middleware.Recover(logger.Named("recover")))

	r.Get("/healthz", Healthz)

	r.Route("/mall/me/cart", func(cr chi.Router) {
		auth := deps.UserAuth
		if auth == nil {
			// fail closed
			auth = &middleware.UserAuthMiddleware{Logger: logger}
		}
		cr.Use(auth.Handler)

		if deps.Cart == nil {
			logger.Warn("cart handler is nil; /mall/me/cart answers 503")
		}
		cart := deps.Cart

		cr.Get("/", cart.Get)
		cr.Delete("/", cart.Clear)
		cr.Post("/items", cart.AddItem)
		cr.Put("/items", cart.AdjustItem)
		cr.Delete("/items/{productId}", cart.RemoveItem)
		cr.Post("/checkout", cart.Checkout)
	})

	return r
}

// Healthz answers liveness probes.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
