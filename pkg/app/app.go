// Package app wires configuration into a running gallery: repository,
// catalog cache, image fetchers, services and the HTTP router.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/adapters/handler"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/adapters/storage/s3store"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/config"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/export"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/gallery"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/imaging"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/reorder"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/services"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/metrics"
)

type App struct {
	Config   *config.Config
	Repo     *sqlstore.Repository
	Store    *s3store.Store // nil unless S3_BUCKET_NAME is set
	Metrics  *metrics.Metrics
	Services handler.Services

	Collections *services.CollectionService
	Limiter     *handler.RateLimiter

	stop context.CancelFunc
	log  logrus.FieldLogger
}

const limiterCleanupInterval = time.Minute

// New opens the database and builds every service. The caller must Close
// the app.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	repo, err := sqlstore.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.WithField("driver", sqlstore.DriverFor(cfg.DatabaseURL)).Info("database ready")

	a := &App{Config: cfg, Repo: repo, Metrics: metrics.New(), log: log}

	if cfg.S3BucketName != "" {
		a.Store, err = s3store.New(ctx, s3store.Options{
			Bucket:   cfg.S3BucketName,
			Prefix:   cfg.S3Prefix,
			BaseURL:  cfg.S3BaseURL,
			MaxBytes: cfg.ExportMaxImageBytes,
			Log:      log,
		})
		if err != nil {
			repo.Close()
			return nil, err
		}
		log.WithFields(logrus.Fields{"bucket": cfg.S3BucketName, "base_url": cfg.S3BaseURL}).Info("use s3 image store")
	}

	selector, err := imaging.NewSelector(cfg.LadderCacheSize)
	if err != nil {
		repo.Close()
		return nil, err
	}
	cache := gallery.NewCache(repo)

	pipeline := export.NewPipeline(a.fetcher(),
		export.WithWorkers(cfg.ExportWorkers),
		export.WithLogger(log),
		export.WithRecorder(a.Metrics),
	)

	a.Limiter = handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	var bg context.Context
	bg, a.stop = context.WithCancel(ctx)
	a.Limiter.StartCleanup(bg, limiterCleanupInterval)

	a.Collections = services.NewCollectionService(repo, reorder.NewRegistry(log), pipeline, a.Metrics, log)
	a.Services = handler.Services{
		Gallery:     services.NewGalleryService(cache, selector, repo, log),
		Users:       services.NewUserService(repo),
		Favorites:   services.NewFavoriteService(repo, cache),
		Collections: a.Collections,
		Comments:    services.NewCommentService(repo, cache),
	}
	return a, nil
}

// fetcher downloads images for exports: objects of the configured bucket
// through S3, everything else over HTTP.
func (a *App) fetcher() export.Fetcher {
	httpFetcher := export.NewHTTPFetcher(a.Config.ExportFetchTimeout, a.Config.ExportMaxImageBytes)
	if a.Store == nil || a.Config.S3BaseURL == "" {
		return httpFetcher
	}
	return &export.RoutingFetcher{
		Routes:  []export.Route{{Prefix: a.Store.BaseURL(), Fetcher: a.Store}},
		Default: httpFetcher,
	}
}

// Handler builds the HTTP router
func (a *App) Handler() http.Handler {
	return handler.NewRouter(a.Config, a.Services, a.Metrics, a.log, handler.WithRateLimiter(a.Limiter))
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	return a.Repo.Close()
}
