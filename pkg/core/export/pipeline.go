// Package export packages a collection's images into a ZIP archive.
//
// Images that cannot be downloaded are replaced by a small text file with
// their URL, title and author, so an export always produces an archive.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Item is one collection member to export, in display order
type Item struct {
	ImageID int64
	URL     string
	Title   string
	Author  string
}

// Collection is the input of an export
type Collection struct {
	ID    string
	Name  string
	Items []Item
}

// Outcome summarizes how many images made it into the archive
type Outcome string

const (
	OutcomeComplete     Outcome = "complete"
	OutcomePartial      Outcome = "partial"
	OutcomeMetadataOnly Outcome = "metadata_only"
)

// Result is reported to the user after an export
type Result struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Outcome   Outcome `json:"outcome"`
	Message   string  `json:"message"`
}

// Archive is a finished export
type Archive struct {
	Filename string
	Data     []byte
	Result   Result
}

// Recorder receives per-image and per-export events, typically metrics.
type Recorder interface {
	ImageFetched(ok bool)
	ExportFinished(outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) ImageFetched(bool)       {}
func (nopRecorder) ExportFinished(Outcome) {}

// Pipeline exports collections. Safe for concurrent use.
type Pipeline struct {
	fetcher  Fetcher
	workers  int
	now      func() time.Time
	log      logrus.FieldLogger
	recorder Recorder
}

type Option func(*Pipeline)

// WithWorkers sets how many images are fetched at once. 1 fetches
// sequentially.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func NewPipeline(fetcher Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		workers:  1,
		now:      time.Now,
		log:      logrus.StandardLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type fetched struct {
	data []byte
	err  error
}

// Export downloads every item and builds the archive. Download failures
// are recorded as placeholders; only a failure to write the archive or a
// cancelled context is returned as an error.
func (p *Pipeline) Export(ctx context.Context, c Collection) (*Archive, error) {
	log := p.log.WithFields(logrus.Fields{"collection_id": c.ID, "images": len(c.Items)})
	results := p.fetchAll(ctx, c.Items)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	at := p.now()
	folder := Sanitize(c.Name) + "/"
	aw := newArchiveWriter(at)
	res := Result{Total: len(c.Items)}

	for i, it := range c.Items {
		r := results[i]
		if r.err == nil {
			if err := aw.add(folder+imageFileName(i, it), r.data); err != nil {
				return nil, fmt.Errorf("write %s: %w", it.URL, err)
			}
			res.Succeeded++
			p.recorder.ImageFetched(true)
			continue
		}

		res.Failed++
		p.recorder.ImageFetched(false)
		log.WithFields(logrus.Fields{"image_id": it.ImageID, "url": it.URL}).WithError(r.err).Warn("image download failed, adding placeholder")
		if err := aw.add(folder+placeholderFileName(i, it), []byte(placeholderText(it))); err != nil {
			return nil, fmt.Errorf("write placeholder %s: %w", it.URL, err)
		}
	}

	res.Outcome, res.Message = summarize(res, ArchiveName(c.Name))
	if err := aw.add(folder+ManifestName, []byte(manifestText(c, res, at))); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	data, err := aw.finish()
	if err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	p.recorder.ExportFinished(res.Outcome)
	log.WithFields(logrus.Fields{"succeeded": res.Succeeded, "failed": res.Failed, "bytes": len(data)}).Info("collection exported")
	return &Archive{Filename: ArchiveName(c.Name), Data: data, Result: res}, nil
}

// fetchAll downloads items, indexing results by position so that the
// archive layout does not depend on completion order.
func (p *Pipeline) fetchAll(ctx context.Context, items []Item) []fetched {
	results := make([]fetched, len(items))
	if p.workers <= 1 {
		for i, it := range items {
			results[i] = p.fetchOne(ctx, it)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, it := range items {
		g.Go(func() error {
			results[i] = p.fetchOne(ctx, it)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) fetchOne(ctx context.Context, it Item) (r fetched) {
	defer func() {
		if v := recover(); v != nil {
			r = fetched{err: fmt.Errorf("fetch panicked: %v", v)}
		}
	}()
	if it.URL == "" {
		return fetched{err: fmt.Errorf("image %d has no url", it.ImageID)}
	}
	data, err := p.fetcher.Fetch(ctx, it.URL)
	if err == nil && len(data) == 0 {
		err = ErrEmptyBody
	}
	return fetched{data: data, err: err}
}

func summarize(r Result, filename string) (Outcome, string) {
	switch {
	case r.Total > 0 && r.Succeeded == r.Total:
		return OutcomeComplete, fmt.Sprintf("Successfully exported all %d images as %s!", r.Succeeded, filename)
	case r.Succeeded > 0:
		return OutcomePartial, fmt.Sprintf("Exported %d images successfully. %d images failed. Check the %s file for missing images.", r.Succeeded, r.Failed, ManifestName)
	default:
		return OutcomeMetadataOnly, "Created ZIP with image URLs and info only. No images could be downloaded directly."
	}
}
