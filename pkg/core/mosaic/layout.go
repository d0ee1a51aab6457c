// Package mosaic assigns tile variants to gallery images.
//
// The assignment depends only on the image orientation and its position in
// the listing, so server and client renderings of the same listing always
// agree.
package mosaic

import (
	"path"
	"strings"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// Variant is the grid footprint of a tile
type Variant string

const (
	VariantNormal Variant = "normal"
	VariantLarge  Variant = "large"
	VariantWide   Variant = "wide"
	VariantTall   Variant = "tall"
)

// Assignment is the layout reserved for one tile
type Assignment struct {
	Variant     Variant `json:"mosaic_type"`
	CSSClass    string  `json:"css_class"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio string  `json:"aspect_ratio"`
	Sizes       string  `json:"sizes"`
}

const (
	narrowSizes = "(max-width: 600px) 100vw, 231px"
	wideSizes   = "(max-width: 600px) 100vw, 471px"
)

var (
	landscape = Assignment{Variant: VariantNormal, CSSClass: "landscape", Width: 471, Height: 300, AspectRatio: "16 / 9", Sizes: wideSizes}
	square    = Assignment{Variant: VariantNormal, CSSClass: "portrait", Width: 231, Height: 231, AspectRatio: "1 / 1", Sizes: narrowSizes}

	vertical = map[Variant]Assignment{
		VariantNormal: {Variant: VariantNormal, CSSClass: "portrait", Width: 231, Height: 300, AspectRatio: "3 / 4", Sizes: narrowSizes},
		VariantLarge:  {Variant: VariantLarge, CSSClass: "mosaicLarge", Width: 471, Height: 300, AspectRatio: "3 / 4", Sizes: wideSizes},
		VariantWide:   {Variant: VariantWide, CSSClass: "mosaicWide", Width: 471, Height: 300, AspectRatio: "16 / 9", Sizes: wideSizes},
		VariantTall:   {Variant: VariantTall, CSSClass: "mosaicTall", Width: 231, Height: 300, AspectRatio: "2 / 3", Sizes: narrowSizes},
	}
)

// Position rules for vertical images. Checked in order; the first match wins.
var rules = []struct {
	modulus, remainder int
	variant            Variant
}{
	{11, 0, VariantLarge},
	{13, 7, VariantWide},
	{17, 5, VariantTall},
}

// VariantAt returns the variant a vertical image receives at index.
func VariantAt(index int) Variant {
	if index <= 0 {
		return VariantNormal
	}
	for _, r := range rules {
		if index%r.modulus == r.remainder {
			return r.variant
		}
	}
	return VariantNormal
}

// AssignLayout returns the tile layout for an image of the given
// orientation at position index in its listing.
func AssignLayout(orientation domain.Orientation, index int) Assignment {
	switch orientation {
	case domain.OrientationHorizontal:
		return landscape
	case domain.OrientationSquare:
		return square
	default:
		return vertical[VariantAt(index)]
	}
}

// Tile is an image placed in a listing
type Tile struct {
	Image  domain.Image
	Index  int
	Layout Assignment
}

// PlaceholderPrefix marks catalog rows that only exist to pad folders.
const PlaceholderPrefix = "000_aaa"

// IsPlaceholder reports whether the image file is a padding placeholder.
func IsPlaceholder(img *domain.Image) bool {
	name := strings.ToLower(path.Base(img.URL))
	return strings.HasPrefix(name, PlaceholderPrefix)
}

// Arrange drops placeholders, normalizes orientation and lays out the
// remaining images by their position in the filtered listing.
func Arrange(images []domain.Image) []Tile {
	tiles := make([]Tile, 0, len(images))
	for _, img := range images {
		if IsPlaceholder(&img) {
			continue
		}
		img.Orientation = domain.ParseOrientation(string(img.Orientation))
		index := len(tiles)
		tiles = append(tiles, Tile{
			Image:  img,
			Index:  index,
			Layout: AssignLayout(img.Orientation, index),
		})
	}
	return tiles
}
