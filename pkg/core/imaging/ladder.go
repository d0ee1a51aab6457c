// Package imaging picks pre-rendered image resolutions.
//
// Every catalog image that carries a base URL and a file name has a ladder
// of resized copies stored next to each other:
//
//	{base_url}/w400/{name}.webp
//	{base_url}/w600/{name}.webp
//	...
//	{base_url}/originalsWEBP/{name}.webp
//
// The selector only computes URLs; fetching is left to the caller.
package imaging

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// StandardWidths are the generated widths, ascending.
var StandardWidths = []int{400, 600, 800, 1200, 1600}

// OriginalsFolder holds the full-size webp copy of every image.
const OriginalsFolder = "originalsWEBP"

var convertibleExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|tif|tiff)$`)

// Ladder is the ascending list of variants available for one image.
type Ladder []domain.ImageVariant

// Smallest returns the first variant. The ladder must not be empty.
func (l Ladder) Smallest() domain.ImageVariant { return l[0] }

// Largest returns the last variant. The ladder must not be empty.
func (l Ladder) Largest() domain.ImageVariant { return l[len(l)-1] }

// WebpName rewrites a raster file name to its webp counterpart.
func WebpName(filename string) string {
	return convertibleExt.ReplaceAllString(filename, ".webp")
}

// FolderForWidth is the sibling folder holding the copies of one width.
func FolderForWidth(width int) string {
	return fmt.Sprintf("w%d", width)
}

// DeriveLadder builds the ladder of an image. An explicit variant list
// wins over the base URL convention. The result is empty when neither is
// available.
func DeriveLadder(img *domain.Image) Ladder {
	if img == nil {
		return nil
	}
	if len(img.Variants) > 0 {
		return normalize(img.Variants)
	}
	if img.BaseURL == "" || img.Filename == "" {
		return nil
	}

	base := strings.TrimRight(img.BaseURL, "/")
	name := WebpName(img.Filename)

	ladder := make(Ladder, 0, len(StandardWidths)+1)
	for _, w := range StandardWidths {
		// Copies wider than the original are never generated
		if img.Width > 0 && w > img.Width {
			break
		}
		ladder = append(ladder, domain.ImageVariant{
			URL:   base + "/" + FolderForWidth(w) + "/" + name,
			Width: w,
		})
	}
	// The original tops the ladder whenever it is wider than the widest copy
	if len(ladder) == 0 || img.Width > ladder[len(ladder)-1].Width {
		width := img.Width
		if width <= 0 {
			width = StandardWidths[len(StandardWidths)-1]
		}
		ladder = append(ladder, domain.ImageVariant{
			URL:   base + "/" + OriginalsFolder + "/" + name,
			Width: width,
		})
	}
	return ladder
}

// normalize sorts variants ascending and drops entries without a URL or a
// positive width. When two entries share a width the first one wins.
func normalize(variants []domain.ImageVariant) Ladder {
	ladder := make(Ladder, 0, len(variants))
	for _, v := range variants {
		if v.URL == "" || v.Width <= 0 {
			continue
		}
		ladder = append(ladder, v)
	}
	sort.SliceStable(ladder, func(i, j int) bool { return ladder[i].Width < ladder[j].Width })

	out := ladder[:0]
	for i, v := range ladder {
		if i > 0 && v.Width == out[len(out)-1].Width {
			continue
		}
		out = append(out, v)
	}
	return out
}
