package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// PreviewSize is how many member images a collection listing carries
const PreviewSize = 4

const collectionColumns = `id, user_id, name, description, created_at, updated_at`

const memberSelect = `SELECT cf.collection_id, cf.favorite_id, f.image_id, i.url AS image_url, cf.display_order, cf.added_at
	FROM collection_favorites cf
	JOIN favorites f ON f.id = cf.favorite_id
	JOIN images i ON i.id = f.image_id`

func (r *Repository) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if c.ID == "" || c.UserID == "" || c.Name == "" {
		return fmt.Errorf("%w: collection id, owner and name are required", domain.ErrInvalidInput)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	query := r.db.Rebind(`INSERT INTO collections (id, user_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetCollection returns the collection with its members in display order,
// only when userID owns it.
func (r *Repository) GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error) {
	return r.getCollection(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ? AND user_id = ?`, id, userID)
}

// GetSharedCollection returns any collection by id, for share links.
func (r *Repository) GetSharedCollection(ctx context.Context, id string) (*domain.Collection, error) {
	return r.getCollection(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
}

func (r *Repository) getCollection(ctx context.Context, query string, args ...interface{}) (*domain.Collection, error) {
	var row collectionRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		return nil, notFound(err, "collection")
	}
	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(memberSelect+` WHERE cf.collection_id = ? ORDER BY cf.display_order, cf.added_at`), c.ID); err != nil {
		return nil, err
	}

	imageIDs := make([]int64, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		c.Members = append(c.Members, m)
		imageIDs = append(imageIDs, m.ImageID)
	}
	images, err := loadImages(ctx, r.db, imageIDs)
	if err != nil {
		return nil, err
	}
	for i := range c.Members {
		if img, ok := images[c.Members[i].ImageID]; ok {
			c.Members[i].Image = &img
		}
	}
	fillSummary(&c, rows)
	return &c, nil
}

func fillSummary(c *domain.Collection, members []memberRow) {
	c.ImageCount = len(members)
	c.PreviewURLs = nil
	for i := 0; i < len(members) && i < PreviewSize; i++ {
		c.PreviewURLs = append(c.PreviewURLs, members[i].ImageURL)
	}
}

// ListCollections returns the user's collections, newest first, with image
// counts and preview URLs but without members.
func (r *Repository) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	var rows []collectionRow
	query := r.db.Rebind(`SELECT ` + collectionColumns + ` FROM collections WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	var members []memberRow
	query = r.db.Rebind(memberSelect + ` JOIN collections c ON c.id = cf.collection_id
		WHERE c.user_id = ? ORDER BY cf.collection_id, cf.display_order, cf.added_at`)
	if err := r.db.SelectContext(ctx, &members, query, userID); err != nil {
		return nil, err
	}
	byCollection := make(map[string][]memberRow)
	for _, m := range members {
		byCollection[m.CollectionID] = append(byCollection[m.CollectionID], m)
	}

	collections := make([]domain.Collection, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		fillSummary(&c, byCollection[c.ID])
		collections = append(collections, c)
	}
	return collections, nil
}

func (r *Repository) UpdateCollection(ctx context.Context, userID string, c *domain.Collection) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = r.now()
	}
	query := r.db.Rebind(`UPDATE collections SET name = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Description, c.UpdatedAt, c.ID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "collection "+c.ID)
}

func (r *Repository) DeleteCollection(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownCollection(ctx, tx, userID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM collection_favorites WHERE collection_id = ?`), id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM collections WHERE id = ?`), id)
		return err
	})
}

// AddMember appends a favorite of the collection owner to the end of the
// collection.
func (r *Repository) AddMember(ctx context.Context, userID, collectionID string, favoriteID int64) (*domain.CollectionMember, error) {
	members, err := r.AddMembers(ctx, userID, collectionID, []int64{favoriteID})
	if err != nil {
		return nil, err
	}
	return &members[0], nil
}

// AddMembers appends favorites in the given order within one transaction.
// An unknown, foreign or duplicate id adds nothing.
func (r *Repository) AddMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]domain.CollectionMember, error) {
	now := r.now()
	members := make([]domain.CollectionMember, 0, len(favoriteIDs))

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownCollection(ctx, tx, userID, collectionID); err != nil {
			return err
		}

		var next int
		if err := tx.GetContext(ctx, &next, tx.Rebind(`SELECT COUNT(*) FROM collection_favorites WHERE collection_id = ?`), collectionID); err != nil {
			return err
		}

		seen := make(map[int64]bool, len(favoriteIDs))
		for _, favoriteID := range favoriteIDs {
			if seen[favoriteID] {
				return fmt.Errorf("favorite %d listed twice: %w", favoriteID, domain.ErrDuplicate)
			}
			seen[favoriteID] = true

			member := domain.CollectionMember{CollectionID: collectionID, FavoriteID: favoriteID, DisplayOrder: next, AddedAt: now}
			err := tx.GetContext(ctx, &member.ImageID, tx.Rebind(`SELECT image_id FROM favorites WHERE id = ? AND user_id = ?`), favoriteID, userID)
			if err != nil {
				return notFound(err, fmt.Sprintf("favorite %d", favoriteID))
			}

			var exists int
			if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM collection_favorites WHERE collection_id = ? AND favorite_id = ?`), collectionID, favoriteID); err != nil {
				return err
			}
			if exists > 0 {
				return fmt.Errorf("favorite %d in collection %s: %w", favoriteID, collectionID, domain.ErrDuplicate)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO collection_favorites (collection_id, favorite_id, display_order, added_at) VALUES (?, ?, ?, ?)`),
				collectionID, favoriteID, member.DisplayOrder, member.AddedAt); err != nil {
				return err
			}
			members = append(members, member)
			next++
		}
		return touch(ctx, tx, collectionID, now)
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// RemoveMembers drops favorites from the collection and renumbers the rest.
// Ids that are not members are ignored. Returns how many were removed.
func (r *Repository) RemoveMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) (int, error) {
	if len(favoriteIDs) == 0 {
		return 0, nil
	}
	var removed int64
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownCollection(ctx, tx, userID, collectionID); err != nil {
			return err
		}
		query, args, err := sqlx.In(`DELETE FROM collection_favorites WHERE collection_id = ? AND favorite_id IN (?)`, collectionID, favoriteIDs)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		if err := densify(ctx, tx, collectionID); err != nil {
			return err
		}
		return touch(ctx, tx, collectionID, r.now())
	})
	return int(removed), err
}

func (r *Repository) ListMemberOrder(ctx context.Context, userID, collectionID string) ([]int64, error) {
	if err := ownCollection(ctx, r.db, userID, collectionID); err != nil {
		return nil, err
	}
	return memberOrder(ctx, r.db, collectionID)
}

// ReplaceMemberOrder writes display_order = index for each favorite, one
// update per member, inside a single transaction. Any failure rolls the
// whole order back.
func (r *Repository) ReplaceMemberOrder(ctx context.Context, userID, collectionID string, favoriteIDs []int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownCollection(ctx, tx, userID, collectionID); err != nil {
			return err
		}
		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM collection_favorites WHERE collection_id = ?`), collectionID); err != nil {
			return err
		}
		if count != len(favoriteIDs) {
			return fmt.Errorf("%w: order has %d ids, collection has %d members", domain.ErrInvalidInput, len(favoriteIDs), count)
		}
		if err := writeOrder(ctx, tx, collectionID, favoriteIDs); err != nil {
			return err
		}
		return touch(ctx, tx, collectionID, r.now())
	})
}

func ownCollection(ctx context.Context, q sqlx.ExtContext, userID, collectionID string) error {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM collections WHERE id = ? AND user_id = ?`), collectionID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
	}
	return nil
}

func memberOrder(ctx context.Context, q sqlx.ExtContext, collectionID string) ([]int64, error) {
	ids := []int64{}
	err := sqlx.SelectContext(ctx, q, &ids,
		q.Rebind(`SELECT favorite_id FROM collection_favorites WHERE collection_id = ? ORDER BY display_order, added_at`), collectionID)
	return ids, err
}

func writeOrder(ctx context.Context, tx *sqlx.Tx, collectionID string, favoriteIDs []int64) error {
	query := tx.Rebind(`UPDATE collection_favorites SET display_order = ? WHERE collection_id = ? AND favorite_id = ?`)
	for i, id := range favoriteIDs {
		res, err := tx.ExecContext(ctx, query, i, collectionID, id)
		if err != nil {
			return fmt.Errorf("set order of favorite %d: %w", id, err)
		}
		if err := expectAffected(res, fmt.Sprintf("favorite %d in collection %s", id, collectionID)); err != nil {
			return err
		}
	}
	return nil
}

// densify renumbers members 0..N-1 keeping their relative order
func densify(ctx context.Context, tx *sqlx.Tx, collectionID string) error {
	ids, err := memberOrder(ctx, tx, collectionID)
	if err != nil {
		return err
	}
	return writeOrder(ctx, tx, collectionID, ids)
}

func touch(ctx context.Context, tx *sqlx.Tx, collectionID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE collections SET updated_at = ? WHERE id = ?`), at, collectionID)
	return err
}
