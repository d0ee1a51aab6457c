package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

func (r *Repository) ListAllImages(ctx context.Context) ([]domain.Image, error) {
	var rows []imageRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+imageColumns+` FROM images ORDER BY id`); err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(rows))
	for i := range rows {
		img, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (r *Repository) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	var row imageRow
	query := r.db.Rebind(`SELECT ` + imageColumns + ` FROM images WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("image %d", id))
	}
	img, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// UpsertImage inserts img or updates the row with the same URL. img.ID is
// set to the stored id.
func (r *Repository) UpsertImage(ctx context.Context, img *domain.Image) error {
	if img.URL == "" {
		return fmt.Errorf("%w: image url is required", domain.ErrInvalidInput)
	}
	variants, err := encodeVariants(img.Variants)
	if err != nil {
		return err
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = r.now()
	}
	if img.Orientation == "" {
		img.Orientation = domain.OrientationVertical
	}

	query := r.db.Rebind(`INSERT INTO images (url, author, title, description, orientation, width, height, base_url, filename, variants, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT (url) DO UPDATE SET
				author = excluded.author,
				title = excluded.title,
				description = excluded.description,
				orientation = excluded.orientation,
				width = excluded.width,
				height = excluded.height,
				base_url = excluded.base_url,
				filename = excluded.filename,
				variants = excluded.variants
			  RETURNING id`)

	return r.db.QueryRowxContext(ctx, query,
		img.URL, img.Author, img.Title, img.Description, string(img.Orientation),
		img.Width, img.Height, img.BaseURL, img.Filename, variants, img.CreatedAt,
	).Scan(&img.ID)
}

// loadImages fetches the images with the given ids in one query.
func loadImages(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]domain.Image, error) {
	out := make(map[int64]domain.Image, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+imageColumns+` FROM images WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []imageRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range rows {
		img, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[img.ID] = img
	}
	return out, nil
}
