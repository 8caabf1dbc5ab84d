package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-identity-api/internal/application/avatar"
	"github.com/go-identity-api/internal/application/identity"
	"github.com/go-identity-api/internal/config"
	"github.com/go-identity-api/internal/transport/http/handler"
	appmiddleware "github.com/go-identity-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	avatarSvc := avatar.NewService(cfg.AvatarDir, mirrorOrNil(deps))
	identitySvc := identity.NewService(identity.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Mailer:      deps.Mailer,
		JWTProvider: deps.JWTProvider,
		Avatars:     avatarSvc,
		BaseURL:     cfg.BaseURL,
	})

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.AccountRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(identitySvc)
	avatarH := handler.NewAvatarHandler(identitySvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/healthcheck", healthH.Ping)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Get("/verify/{verificationToken}", authH.VerifyToken)
			r.Post("/verify", authH.ResendVerification)
			r.Post("/login", authH.Login)

			// ── Authenticated routes ─────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(authMw)

				r.Get("/logout", authH.Logout)
				r.Get("/current", authH.Current)
				r.Patch("/avatars", avatarH.Update)
			})
		})
	})

	// Normalized avatars are served statically next to the API.
	fs := http.StripPrefix("/avatars/", http.FileServer(http.Dir(cfg.AvatarDir)))
	r.Get("/avatars/*", fs.ServeHTTP)

	return r
}

// mirrorOrNil avoids handing the avatar service a typed-nil mirror when no
// bucket is configured.
func mirrorOrNil(deps *Deps) avatar.ObjectMirror {
	if deps.S3Store == nil {
		return nil
	}
	return deps.S3Store
}
