package imaging

import (
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// DefaultCacheSize is the number of ladders a Selector keeps.
const DefaultCacheSize = 4096

// Selection is the variant picked for a rendering width.
type Selection struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
	// Fallback is set when no ladder could be derived and URL is the
	// image's own url.
	Fallback bool `json:"fallback,omitempty"`
}

// Pick returns the smallest ladder entry at least target wide, or the
// largest entry when the target exceeds the ladder. A non-positive target
// yields the smallest entry.
func (l Ladder) Pick(target int) domain.ImageVariant {
	if target <= 0 {
		return l.Smallest()
	}
	i := sort.Search(len(l), func(i int) bool { return l[i].Width >= target })
	if i == len(l) {
		return l.Largest()
	}
	return l[i]
}

// SelectVariant picks the variant of img to render at targetWidth pixels.
func SelectVariant(img *domain.Image, targetWidth int) Selection {
	return selectFrom(img, DeriveLadder(img), targetWidth)
}

// SelectVariantForZoom scales the rendered width by the zoom factor
// before selecting. Zoom factors below 1 are treated as 1.
func SelectVariantForZoom(img *domain.Image, renderedWidth int, zoom float64) Selection {
	return SelectVariant(img, zoomedWidth(renderedWidth, zoom))
}

func zoomedWidth(renderedWidth int, zoom float64) int {
	if math.IsNaN(zoom) || zoom < 1 {
		zoom = 1
	}
	return int(math.Ceil(float64(renderedWidth) * zoom))
}

func selectFrom(img *domain.Image, ladder Ladder, target int) Selection {
	if len(ladder) == 0 {
		if img == nil {
			return Selection{Fallback: true}
		}
		return Selection{URL: img.URL, Width: img.Width, Fallback: true}
	}
	v := ladder.Pick(target)
	return Selection{URL: v.URL, Width: v.Width}
}

// Selector memoizes ladders by image id.
type Selector struct {
	ladders *lru.Cache[int64, Ladder]
}

// NewSelector creates a selector remembering up to size ladders.
func NewSelector(size int) (*Selector, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[int64, Ladder](size)
	if err != nil {
		return nil, err
	}
	return &Selector{ladders: cache}, nil
}

// Ladder returns the memoized ladder of img. Images without an id are
// derived every time.
func (s *Selector) Ladder(img *domain.Image) Ladder {
	if img == nil || img.ID == 0 {
		return DeriveLadder(img)
	}
	if l, ok := s.ladders.Get(img.ID); ok {
		return l
	}
	l := DeriveLadder(img)
	s.ladders.Add(img.ID, l)
	return l
}

func (s *Selector) SelectVariant(img *domain.Image, targetWidth int) Selection {
	return selectFrom(img, s.Ladder(img), targetWidth)
}

func (s *Selector) SelectVariantForZoom(img *domain.Image, renderedWidth int, zoom float64) Selection {
	return s.SelectVariant(img, zoomedWidth(renderedWidth, zoom))
}

// Purge forgets every memoized ladder.
func (s *Selector) Purge() {
	s.ladders.Purge()
}
