package domain

import (
	"strings"
	"time"
)

// Orientation of an image as stored in the catalog
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
	OrientationSquare     Orientation = "square"
)

// ParseOrientation maps free-form catalog values onto an Orientation.
// Unknown and empty values fall back to vertical.
func ParseOrientation(s string) Orientation {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case OrientationHorizontal:
		return OrientationHorizontal
	case OrientationSquare:
		return OrientationSquare
	default:
		return OrientationVertical
	}
}

// ImageVariant is one pre-rendered resolution of an image
type ImageVariant struct {
	URL   string `json:"url" yaml:"url"`
	Width int    `json:"width" yaml:"width"`
}

// Image represents a catalog photograph. Immutable once loaded.
type Image struct {
	ID          int64          `json:"id" yaml:"id"`
	URL         string         `json:"url" yaml:"url"`
	Author      string         `json:"author" yaml:"author"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description,omitempty"`
	Orientation Orientation    `json:"orientation" yaml:"orientation"`
	Width       int            `json:"width,omitempty" yaml:"width,omitempty"`
	Height      int            `json:"height,omitempty" yaml:"height,omitempty"`
	BaseURL     string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Filename    string         `json:"filename,omitempty" yaml:"filename,omitempty"`
	Variants    []ImageVariant `json:"variants,omitempty" yaml:"variants,omitempty"` // Explicit ladder, optional
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}
