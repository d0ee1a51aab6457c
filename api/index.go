package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/app"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/config"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Vercel logs are collected from stdout
	log, err := logging.New(cfg.LogLevel, "json", os.Stdout)
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, a local sqlite file is ephemeral unless DATABASE_URL
	// points at Turso or Postgres
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	mux = a.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
