package http

import (
	"net/http"

	"github.com/avolkov/cryptofolio/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the API router.
//
// Public endpoints: register, login, and the shared-secret price
// mutation consumed by the scheduler. Everything else sits behind the
// session middleware, which resolves the auth cookie into an identity.
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
func NewRouter(
	authHandler *AuthHandler,
	portfolioHandler *PortfolioHandler,
	assetHandler *AssetHandler,
	authenticator middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/internal/changeprice", assetHandler.ChangePrice)

		// Protected group: requires a valid session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(authenticator))

			r.Post("/logout", authHandler.Logout)
			r.Post("/elevate", authHandler.Elevate)

			r.Post("/addportfolio", portfolioHandler.Add)
			r.Post("/deleteportfolio", portfolioHandler.Delete)
			r.Post("/portfolio/holdings", portfolioHandler.Holdings)
			r.Post("/buy", portfolioHandler.Buy)
			r.Post("/sell", portfolioHandler.Sell)

			r.Post("/fetch/cryptonames", assetHandler.Names)
			r.Post("/fetch/cryptoprices", assetHandler.Prices)
			r.Post("/fetch/cryptospecific", assetHandler.Search)

			r.Post("/root/addcrypto", assetHandler.Create)
			r.Post("/root/removecrypto", assetHandler.Remove)
		})
	})

	return r
}
