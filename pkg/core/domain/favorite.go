package domain

import "time"

// Favorite is a user's bookmark of a single image, unique per (user, image)
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ImageID   int64     `json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
	Image     *Image    `json:"image,omitempty"`
}
