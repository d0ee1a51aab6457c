package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/gallery"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/imaging"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/mosaic"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

const (
	DefaultPageSize = 60
	MaxPageSize     = 200
	maxDPR          = 3
)

type GalleryService struct {
	cache    *gallery.Cache
	selector *imaging.Selector
	comments ports.CommentRepository
	log      logrus.FieldLogger
}

func NewGalleryService(cache *gallery.Cache, selector *imaging.Selector, comments ports.CommentRepository, log logrus.FieldLogger) *GalleryService {
	return &GalleryService{cache: cache, selector: selector, comments: comments, log: log}
}

// ListImages arranges the (optionally author filtered) catalog into the
// mosaic and returns one page of it. Layout indices refer to the whole
// filtered listing, so pages fit together.
func (s *GalleryService) ListImages(ctx context.Context, q ports.GalleryQuery) (*ports.GalleryPage, error) {
	images, err := s.cache.Images(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if q.Author != "" {
		filtered := make([]domain.Image, 0, len(images))
		for _, img := range images {
			if strings.EqualFold(img.Author, q.Author) {
				filtered = append(filtered, img)
			}
		}
		images = filtered
	}

	tiles := mosaic.Arrange(images)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	dpr := q.DPR
	if dpr < 1 || math.IsNaN(dpr) {
		dpr = 1
	}
	if dpr > maxDPR {
		dpr = maxDPR
	}

	page := &ports.GalleryPage{Items: []ports.GalleryItem{}, Total: len(tiles), Offset: offset, Limit: limit}
	for i := offset; i < len(tiles) && i < offset+limit; i++ {
		t := tiles[i]
		target := int(math.Ceil(float64(t.Layout.Width) * dpr))
		page.Items = append(page.Items, ports.GalleryItem{
			Image:   t.Image,
			Layout:  t.Layout,
			Display: s.selector.SelectVariant(&t.Image, target),
		})
	}
	return page, nil
}

func (s *GalleryService) GetImage(ctx context.Context, id int64) (*ports.ImageDetail, error) {
	img, err := s.cache.Image(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.comments.CountComments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ports.ImageDetail{Image: *img, Ladder: s.selector.Ladder(img), CommentCount: count}, nil
}

// SelectVariant picks the variant for an image rendered width pixels wide
// at the given zoom.
func (s *GalleryService) SelectVariant(ctx context.Context, id int64, width int, zoom float64) (imaging.Selection, error) {
	img, err := s.cache.Image(ctx, id)
	if err != nil {
		return imaging.Selection{}, err
	}
	sel := s.selector.SelectVariantForZoom(img, width, zoom)
	if sel.Fallback {
		s.log.WithField("image_id", id).Debug("no variant ladder, serving original url")
	}
	return sel, nil
}

// Refresh reloads the catalog and forgets memoized ladders.
func (s *GalleryService) Refresh(ctx context.Context) (int, error) {
	n, err := s.cache.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	s.selector.Purge()
	s.log.WithField("images", n).Info("gallery refreshed")
	return n, nil
}
