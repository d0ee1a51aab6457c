package sqlstore

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// UpsertUser creates the user or refreshes name and avatar of the account
// with the same email. user.ID and user.CreatedAt are set to the
// stored values.
func (r *Repository) UpsertUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("%w: user id and email are required", domain.ErrInvalidInput)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	query := r.db.Rebind(`INSERT INTO users (id, email, name, avatar_url, created_at) VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT (email) DO UPDATE SET name = excluded.name, avatar_url = excluded.avatar_url
			  RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Email, user.Name, user.AvatarURL, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return err
	}

	stored, err := r.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = stored.CreatedAt
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	query := r.db.Rebind(`SELECT id, email, name, avatar_url, created_at FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFound(err, "user "+id)
	}
	return row.toDomain()
}
