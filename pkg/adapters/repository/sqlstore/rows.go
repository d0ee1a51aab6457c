package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// Rows are scanned into these structs and checked before they become
// domain values.

type imageRow struct {
	ID          int64     `db:"id"`
	URL         string    `db:"url"`
	Author      string    `db:"author"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Orientation string    `db:"orientation"`
	Width       int       `db:"width"`
	Height      int       `db:"height"`
	BaseURL     string    `db:"base_url"`
	Filename    string    `db:"filename"`
	Variants    string    `db:"variants"`
	CreatedAt   time.Time `db:"created_at"`
}

const imageColumns = `id, url, author, title, description, orientation, width, height, base_url, filename, variants, created_at`

func (r *imageRow) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: image id %d", domain.ErrInvalidRow, r.ID)
	}
	if r.URL == "" {
		return fmt.Errorf("%w: image %d has no url", domain.ErrInvalidRow, r.ID)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: image %d has negative size", domain.ErrInvalidRow, r.ID)
	}
	return nil
}

func (r *imageRow) toDomain() (domain.Image, error) {
	if err := r.validate(); err != nil {
		return domain.Image{}, err
	}
	img := domain.Image{
		ID:          r.ID,
		URL:         r.URL,
		Author:      r.Author,
		Title:       r.Title,
		Description: r.Description,
		Orientation: domain.ParseOrientation(r.Orientation),
		Width:       r.Width,
		Height:      r.Height,
		BaseURL:     r.BaseURL,
		Filename:    r.Filename,
		CreatedAt:   r.CreatedAt,
	}
	if r.Variants != "" && r.Variants != "[]" {
		if err := json.Unmarshal([]byte(r.Variants), &img.Variants); err != nil {
			return domain.Image{}, fmt.Errorf("%w: image %d variants: %v", domain.ErrInvalidRow, r.ID, err)
		}
	}
	return img, nil
}

func encodeVariants(v []domain.ImageVariant) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type userRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	AvatarURL string    `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *userRow) toDomain() (*domain.User, error) {
	if r.ID == "" || r.Email == "" {
		return nil, fmt.Errorf("%w: user %q", domain.ErrInvalidRow, r.ID)
	}
	return &domain.User{ID: r.ID, Email: r.Email, Name: r.Name, AvatarURL: r.AvatarURL, CreatedAt: r.CreatedAt}, nil
}

type favoriteRow struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	ImageID   int64     `db:"image_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *favoriteRow) toDomain() (domain.Favorite, error) {
	if r.ID <= 0 || r.UserID == "" || r.ImageID <= 0 {
		return domain.Favorite{}, fmt.Errorf("%w: favorite %d", domain.ErrInvalidRow, r.ID)
	}
	return domain.Favorite{ID: r.ID, UserID: r.UserID, ImageID: r.ImageID, CreatedAt: r.CreatedAt}, nil
}

type collectionRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *collectionRow) toDomain() (domain.Collection, error) {
	if r.ID == "" || r.UserID == "" || r.Name == "" {
		return domain.Collection{}, fmt.Errorf("%w: collection %q", domain.ErrInvalidRow, r.ID)
	}
	return domain.Collection{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type memberRow struct {
	CollectionID string    `db:"collection_id"`
	FavoriteID   int64     `db:"favorite_id"`
	ImageID      int64     `db:"image_id"`
	ImageURL     string    `db:"image_url"`
	DisplayOrder int       `db:"display_order"`
	AddedAt      time.Time `db:"added_at"`
}

func (r *memberRow) toDomain() (domain.CollectionMember, error) {
	if r.FavoriteID <= 0 || r.DisplayOrder < 0 {
		return domain.CollectionMember{}, fmt.Errorf("%w: member %d of %q", domain.ErrInvalidRow, r.FavoriteID, r.CollectionID)
	}
	return domain.CollectionMember{
		CollectionID: r.CollectionID,
		FavoriteID:   r.FavoriteID,
		ImageID:      r.ImageID,
		DisplayOrder: r.DisplayOrder,
		AddedAt:      r.AddedAt,
	}, nil
}

type commentRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	ImageID     int64          `db:"image_id"`
	Content     string         `db:"content"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
	AuthorName  sql.NullString `db:"author_name"`
	AuthorEmail sql.NullString `db:"author_email"`
}

func (r *commentRow) toDomain() (domain.Comment, error) {
	if r.ID == "" || r.UserID == "" || r.ImageID <= 0 {
		return domain.Comment{}, fmt.Errorf("%w: comment %q", domain.ErrInvalidRow, r.ID)
	}
	c := domain.Comment{
		ID:        r.ID,
		UserID:    r.UserID,
		ImageID:   r.ImageID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.UpdatedAt.Valid {
		t := r.UpdatedAt.Time
		c.UpdatedAt = &t
	}
	author := domain.User{Name: r.AuthorName.String, Email: r.AuthorEmail.String}
	c.AuthorName = author.DisplayName()
	return c, nil
}
