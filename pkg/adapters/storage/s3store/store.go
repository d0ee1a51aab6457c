// Package s3store reads the image ladder bucket: it lists the catalog for
// syncing and downloads objects for collection exports.
package s3store

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/imaging"
)

// API is the part of the S3 client the store uses
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store maps public image URLs under BaseURL to objects under Prefix in
// Bucket.
type Store struct {
	client   API
	bucket   string
	prefix   string
	baseURL  string
	maxBytes int64
	log      logrus.FieldLogger
}

type Options struct {
	Bucket   string
	Prefix   string // key prefix of the ladder folders, e.g. "gallery/"
	BaseURL  string // public URL of the prefix
	MaxBytes int64
	Log      logrus.FieldLogger
}

// New creates a store with credentials from the default AWS chain.
func New(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), opts), nil
}

func NewWithClient(client API, opts Options) *Store {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 50 << 20
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Store{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   prefix,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		maxBytes: opts.MaxBytes,
		log:      opts.Log.WithField("bucket", opts.Bucket),
	}
}

// BaseURL is the URL prefix served by this store
func (s *Store) BaseURL() string { return s.baseURL + "/" }

// Owns reports whether url points into the bucket
func (s *Store) Owns(url string) bool {
	return s.baseURL != "" && strings.HasPrefix(url, s.baseURL+"/")
}

func (s *Store) keyFor(url string) (string, error) {
	if !s.Owns(url) {
		return "", fmt.Errorf("url %s is not under %s", url, s.baseURL)
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	clean := path.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object path %q", rel)
	}
	return s.prefix + clean, nil
}

// Fetch downloads the object behind a public image URL.
func (s *Store) Fetch(ctx context.Context, url string) ([]byte, error) {
	key, err := s.keyFor(url)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("object %s larger than %d bytes", key, s.maxBytes)
	}
	return data, nil
}

type entry struct {
	original bool
	variants []domain.ImageVariant
}

// Catalog lists the ladder folders and returns one image per file name,
// with the variants that actually exist. Objects outside the ladder
// folders are skipped.
func (s *Store) Catalog(ctx context.Context) ([]domain.Image, error) {
	entries := make(map[string]*entry)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var listed int
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			listed++
			key := aws.ToString(obj.Key)
			folder, name, ok := strings.Cut(strings.TrimPrefix(key, s.prefix), "/")
			if !ok || name == "" || strings.Contains(name, "/") {
				continue
			}
			e := entries[name]
			if e == nil {
				e = &entry{}
			}
			switch width, isWidth := widthOf(folder); {
			case folder == imaging.OriginalsFolder:
				e.original = true
			case isWidth:
				e.variants = append(e.variants, domain.ImageVariant{URL: s.urlFor(folder, name), Width: width})
			default:
				continue
			}
			entries[name] = e
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	images := make([]domain.Image, 0, len(names))
	for _, name := range names {
		e := entries[name]
		sort.Slice(e.variants, func(i, j int) bool { return e.variants[i].Width < e.variants[j].Width })

		img := domain.Image{
			Title:       TitleFromName(name),
			Orientation: domain.OrientationVertical,
			BaseURL:     s.baseURL,
			Filename:    name,
			Variants:    e.variants,
		}
		switch {
		case e.original:
			img.URL = s.urlFor(imaging.OriginalsFolder, name)
		case len(e.variants) > 0:
			img.URL = e.variants[len(e.variants)-1].URL
		}
		images = append(images, img)
	}

	s.log.WithFields(logrus.Fields{"objects": listed, "images": len(images)}).Info("catalog listed")
	return images, nil
}

func (s *Store) urlFor(folder, name string) string {
	return s.baseURL + "/" + folder + "/" + name
}

func widthOf(folder string) (int, bool) {
	if !strings.HasPrefix(folder, "w") {
		return 0, false
	}
	n, err := strconv.Atoi(folder[1:])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// TitleFromName turns "moon_over-half_dome.webp" into "moon over half dome"
func TitleFromName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' }), " ")
}
