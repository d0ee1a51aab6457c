package sqlstore

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

const commentSelect = `SELECT c.id, c.user_id, c.image_id, c.content, c.created_at, c.updated_at,
	u.name AS author_name, u.email AS author_email
	FROM comments c
	LEFT JOIN users u ON u.id = c.user_id`

func (r *Repository) ListCommentsByImage(ctx context.Context, imageID int64) ([]domain.Comment, error) {
	var rows []commentRow
	query := r.db.Rebind(commentSelect + ` WHERE c.image_id = ? ORDER BY c.created_at DESC, c.id`)
	if err := r.db.SelectContext(ctx, &rows, query, imageID); err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (r *Repository) CountComments(ctx context.Context, imageID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM comments WHERE image_id = ?`), imageID)
	return n, err
}

type commentWithImageRow struct {
	commentRow
	ImageTitle  string `db:"image_title"`
	ImageURL    string `db:"image_url"`
	ImageAuthor string `db:"image_author"`
}

func (r *Repository) ListCommentsByUser(ctx context.Context, userID string) ([]domain.CommentWithImage, error) {
	var rows []commentWithImageRow
	query := r.db.Rebind(`SELECT c.id, c.user_id, c.image_id, c.content, c.created_at, c.updated_at,
		u.name AS author_name, u.email AS author_email,
		i.title AS image_title, i.url AS image_url, i.author AS image_author
		FROM comments c
		JOIN images i ON i.id = c.image_id
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.user_id = ?
		ORDER BY c.created_at DESC, c.id`)
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	out := make([]domain.CommentWithImage, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.CommentWithImage{
			Comment:     c,
			ImageTitle:  rows[i].ImageTitle,
			ImageURL:    rows[i].ImageURL,
			ImageAuthor: rows[i].ImageAuthor,
		})
	}
	return out, nil
}

func (r *Repository) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var row commentRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(commentSelect+` WHERE c.id = ?`), id); err != nil {
		return nil, notFound(err, "comment "+id)
	}
	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CreateComment(ctx context.Context, c *domain.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	query := r.db.Rebind(`INSERT INTO comments (id, user_id, image_id, content, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.ImageID, c.Content, c.CreatedAt)
	return err
}

// UpdateComment changes content of a comment written by userID
func (r *Repository) UpdateComment(ctx context.Context, userID, id, content string, at time.Time) error {
	query := r.db.Rebind(`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, content, at, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "comment "+id)
}

// DeleteComment removes a comment written by userID
func (r *Repository) DeleteComment(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM comments WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, "comment "+id)
}
