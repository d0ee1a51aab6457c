package domain

import "time"

// Collection is a named, ordered group of a user's favorites
type Collection struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ImageCount  int                `json:"image_count"`
	PreviewURLs []string           `json:"preview_images,omitempty"` // First few member image URLs
	Members     []CollectionMember `json:"images,omitempty"`         // Populated when fetching full collection details
}

// CollectionMember joins a favorite to a collection with its position
type CollectionMember struct {
	CollectionID string    `json:"collection_id"`
	FavoriteID   int64     `json:"favorite_id"`
	ImageID      int64     `json:"image_id"`
	DisplayOrder int       `json:"display_order"`
	AddedAt      time.Time `json:"added_at"`
	Image        *Image    `json:"image,omitempty"`
}

// FavoriteIDs returns member favorite ids in display order
func (c *Collection) FavoriteIDs() []int64 {
	ids := make([]int64, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.FavoriteID
	}
	return ids
}
