package http

import (
	"net/http"

	"github.com/face-auth-api/internal/application/face"
	"github.com/face-auth-api/internal/application/recovery"
	"github.com/face-auth-api/internal/config"
	"github.com/face-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/face-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Typed nils must not leak into the optional interfaces.
	var archiver face.CropArchiver
	if deps.S3Store != nil {
		archiver = deps.S3Store
	}
	var signer face.TokenSigner
	if deps.JWTProvider != nil {
		signer = deps.JWTProvider
	}

	faceSvc := face.NewService(face.ServiceDeps{
		FaceRepo:  deps.FaceRepo,
		Extractor: deps.Extractor,
		Archiver:  archiver,
		Signer:    signer,
	})
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		RecoveryRepo: deps.RecoveryRepo,
		UserRepo:     deps.UserRepo,
		Mailer:       deps.Mailer,
	})

	healthH := handler.NewHealthHandler()
	faceH := handler.NewFaceHandler(faceSvc)
	recoveryH := handler.NewRecoveryHandler(recoverySvc)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/faces/enroll", faceH.Enroll)
		r.With(sensitiveRL.Limit).Post("/faces/recognize", faceH.Recognize)
		r.Get("/faces/stats", faceH.Stats)
		r.Get("/faces/users/{id}", faceH.UserFaces)

		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", recoveryH.Action)
	})

	return r
}
