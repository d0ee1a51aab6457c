package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

const favoriteColumns = `id, user_id, image_id, created_at`

func (r *Repository) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	var rows []favoriteRow
	query := r.db.Rebind(`SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	favorites := make([]domain.Favorite, 0, len(rows))
	imageIDs := make([]int64, 0, len(rows))
	for i := range rows {
		fav, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, fav)
		imageIDs = append(imageIDs, fav.ImageID)
	}

	images, err := loadImages(ctx, r.db, imageIDs)
	if err != nil {
		return nil, err
	}
	for i := range favorites {
		if img, ok := images[favorites[i].ImageID]; ok {
			favorites[i].Image = &img
		}
	}
	return favorites, nil
}

func (r *Repository) GetFavorite(ctx context.Context, userID string, imageID int64) (*domain.Favorite, error) {
	var row favoriteRow
	query := r.db.Rebind(`SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = ? AND image_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, userID, imageID); err != nil {
		return nil, notFound(err, fmt.Sprintf("favorite of image %d", imageID))
	}
	fav, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// AddFavorite stores fav and sets its id. A second favorite of the same
// image by the same user fails with domain.ErrDuplicate.
func (r *Repository) AddFavorite(ctx context.Context, fav *domain.Favorite) error {
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = r.now()
	}
	query := r.db.Rebind(`INSERT INTO favorites (user_id, image_id, created_at) VALUES (?, ?, ?)
			  ON CONFLICT (user_id, image_id) DO NOTHING RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, fav.UserID, fav.ImageID, fav.CreatedAt).Scan(&fav.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("favorite of image %d: %w", fav.ImageID, domain.ErrDuplicate)
	}
	return err
}

// RemoveFavorite deletes the favorite and its collection memberships, then
// closes the gaps left in the affected collections.
func (r *Repository) RemoveFavorite(ctx context.Context, userID string, imageID int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var favoriteID int64
		err := tx.GetContext(ctx, &favoriteID, tx.Rebind(`SELECT id FROM favorites WHERE user_id = ? AND image_id = ?`), userID, imageID)
		if err != nil {
			return notFound(err, fmt.Sprintf("favorite of image %d", imageID))
		}

		var collectionIDs []string
		if err := tx.SelectContext(ctx, &collectionIDs, tx.Rebind(`SELECT collection_id FROM collection_favorites WHERE favorite_id = ?`), favoriteID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM collection_favorites WHERE favorite_id = ?`), favoriteID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM favorites WHERE id = ?`), favoriteID); err != nil {
			return err
		}

		for _, cid := range collectionIDs {
			if err := densify(ctx, tx, cid); err != nil {
				return err
			}
		}
		return nil
	})
}
