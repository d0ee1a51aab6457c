package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// Catalog file formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// CatalogFile is the dump format of the image catalog
type CatalogFile struct {
	Images []domain.Image `json:"images" yaml:"images"`
}

// FormatOf guesses the catalog format from a file name. Anything that is
// not .json is read as YAML.
func FormatOf(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// WriteCatalog dumps images in format.
func WriteCatalog(w io.Writer, format string, images []domain.Image) error {
	file := CatalogFile{Images: images}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(file)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown catalog format %q", domain.ErrInvalidInput, format)
	}
}

// ReadCatalog parses a catalog dump. Images without a URL are rejected.
func ReadCatalog(r io.Reader, format string) ([]domain.Image, error) {
	var file CatalogFile
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&file)
	case FormatYAML, "":
		err = yaml.NewDecoder(r).Decode(&file)
	default:
		return nil, fmt.Errorf("%w: unknown catalog format %q", domain.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range file.Images {
		img := &file.Images[i]
		if img.URL == "" {
			return nil, fmt.Errorf("%w: image %d has no url", domain.ErrInvalidInput, i+1)
		}
		img.ID = 0
		img.Orientation = domain.ParseOrientation(string(img.Orientation))
	}
	return file.Images, nil
}

// Writer stores catalog images, matching existing rows by URL
type Writer interface {
	UpsertImage(ctx context.Context, img *domain.Image) error
}

// Source lists images from somewhere other than the database, such as an
// S3 bucket.
type Source interface {
	Catalog(ctx context.Context) ([]domain.Image, error)
}

// Import upserts images and returns how many were written. It stops at the
// first failure.
func Import(ctx context.Context, w Writer, images []domain.Image) (int, error) {
	for i := range images {
		if err := w.UpsertImage(ctx, &images[i]); err != nil {
			return i, fmt.Errorf("import %s: %w", images[i].URL, err)
		}
	}
	return len(images), nil
}

// Sync imports everything src lists.
func Sync(ctx context.Context, src Source, w Writer) (int, error) {
	images, err := src.Catalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("list catalog: %w", err)
	}
	return Import(ctx, w, images)
}
