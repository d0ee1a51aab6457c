package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/config"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/export"
)

func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:         "file:app_test?mode=memory&cache=shared",
		JWTSecret:           "secret",
		ExportWorkers:       2,
		ExportFetchTimeout:  time.Second,
		ExportMaxImageBytes: 1 << 20,
		RateLimitRPS:        100,
		RateLimitBurst:      100,
		LadderCacheSize:     32,
	}
}

func TestNew_ServesHealthz(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	a, err := New(context.Background(), testConfig(), log)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Store)
	_, isHTTP := a.fetcher().(*export.HTTPFetcher)
	assert.True(t, isHTTP)

	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/images", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, a.Limiter.Len(), "router shares the app limiter")
}

func TestNew_BadDatabaseURL(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := testConfig()
	cfg.DatabaseURL = "file:/nonexistent-mosaic-dir/sub/gallery.db"

	_, err := New(context.Background(), cfg, log)
	assert.Error(t, err)
}
