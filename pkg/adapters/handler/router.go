package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/config"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/logging"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/metrics"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

// Services are the application services served over HTTP
type Services struct {
	Gallery     ports.GalleryService
	Users       ports.UserService
	Favorites   ports.FavoriteService
	Collections ports.CollectionService
	Comments    ports.CommentService
}

type routerOptions struct {
	limiter *RateLimiter
}

type RouterOption func(*routerOptions)

// WithRateLimiter uses rl instead of a limiter private to the router. The
// caller owns its cleanup loop.
func WithRateLimiter(rl *RateLimiter) RouterOption {
	return func(o *routerOptions) {
		o.limiter = rl
	}
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, m *metrics.Metrics, log logrus.FieldLogger, opts ...RouterOption) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	gh := NewGalleryHandler(svc.Gallery, log)
	fh := NewFavoriteHandler(svc.Favorites, log)
	ch := NewCollectionHandler(svc.Collections, log)
	cm := NewCommentHandler(svc.Comments, log)
	authHandler := NewAuthHandler(cfg, svc.Users, log)

	mw := NewMiddleware(cfg)
	limiter := o.limiter
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-Total", "X-Export-Succeeded", "X-Export-Failed", "X-Export-Outcome"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if m != nil {
		r.Use(m.InstrumentHandler)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"message": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Get("/logout", authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth)
		r.Use(limiter.Handler)

		r.Get("/c/{id}", ch.GetSharedCollection)

		r.Route("/api/v1", func(r chi.Router) {
			// Public catalog
			r.Get("/images", gh.ListImages)
			r.Get("/images/{id}", gh.GetImage)
			r.Get("/images/{id}/variant", gh.Variant)
			r.Get("/images/{id}/comments", cm.ListForImage)

			r.Group(func(r chi.Router) {
				r.Use(mw.AuthMiddleware)

				r.Post("/gallery/refresh", gh.Refresh)

				r.Get("/favorites", fh.List)
				r.Post("/favorites", fh.Add)
				r.Delete("/favorites/{imageID}", fh.Remove)

				r.Route("/collections", func(r chi.Router) {
					r.Get("/", ch.ListCollections)
					r.Post("/", ch.CreateCollection)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", ch.GetCollection)
						r.Put("/", ch.UpdateCollection)
						r.Delete("/", ch.DeleteCollection)
						r.Post("/members", ch.AddMembers)
						r.Delete("/members", ch.RemoveMembers)
						r.Get("/selection", ch.Selection)
						r.Post("/selection", ch.ToggleSelection)
						r.Delete("/selection", ch.RemoveSelected)
						r.Put("/order", ch.SetOrder)
						r.Post("/move", ch.Move)
						r.Get("/export", ch.Export)
					})
				})

				r.Post("/images/{id}/comments", cm.Create)
				r.Put("/comments/{id}", cm.Update)
				r.Delete("/comments/{id}", cm.Delete)
				r.Get("/me/comments", cm.Mine)
			})
		})
	})

	return r
}
