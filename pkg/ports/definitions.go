package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/export"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/imaging"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/mosaic"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/reorder"
)

// ImageRepository defines storage operations for the catalog
type ImageRepository interface {
	ListAllImages(ctx context.Context) ([]domain.Image, error)
	GetImage(ctx context.Context, id int64) (*domain.Image, error)
	UpsertImage(ctx context.Context, img *domain.Image) error // Matched on URL
}

// UserRepository stores accounts created at login
type UserRepository interface {
	UpsertUser(ctx context.Context, user *domain.User) error // Matched on email
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// FavoriteRepository stores favorites. Every call is scoped to userID.
type FavoriteRepository interface {
	ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
	GetFavorite(ctx context.Context, userID string, imageID int64) (*domain.Favorite, error)
	AddFavorite(ctx context.Context, fav *domain.Favorite) error
	// RemoveFavorite also drops the favorite from every collection holding it
	RemoveFavorite(ctx context.Context, userID string, imageID int64) error
}

// CollectionRepository stores collections and their ordered members
type CollectionRepository interface {
	CreateCollection(ctx context.Context, c *domain.Collection) error
	GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error)
	GetSharedCollection(ctx context.Context, id string) (*domain.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	UpdateCollection(ctx context.Context, userID string, c *domain.Collection) error
	DeleteCollection(ctx context.Context, userID, id string) error

	AddMember(ctx context.Context, userID, collectionID string, favoriteID int64) (*domain.CollectionMember, error)
	// AddMembers appends favorites in order, all or nothing
	AddMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]domain.CollectionMember, error)
	RemoveMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) (int, error)
	ListMemberOrder(ctx context.Context, userID, collectionID string) ([]int64, error)
	// ReplaceMemberOrder sets display_order = index for every id, all or nothing
	ReplaceMemberOrder(ctx context.Context, userID, collectionID string, favoriteIDs []int64) error
}

// CommentRepository stores comments on images
type CommentRepository interface {
	ListCommentsByImage(ctx context.Context, imageID int64) ([]domain.Comment, error)
	CountComments(ctx context.Context, imageID int64) (int, error)
	ListCommentsByUser(ctx context.Context, userID string) ([]domain.CommentWithImage, error)
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	CreateComment(ctx context.Context, c *domain.Comment) error
	UpdateComment(ctx context.Context, userID, id, content string, at time.Time) error
	DeleteComment(ctx context.Context, userID, id string) error
}

// Repository is the whole persistence boundary
type Repository interface {
	ImageRepository
	UserRepository
	FavoriteRepository
	CollectionRepository
	CommentRepository
	Close() error
}

// GalleryItem is an image placed in the mosaic with the variant chosen for
// its slot
type GalleryItem struct {
	domain.Image
	Layout  mosaic.Assignment `json:"layout"`
	Display imaging.Selection `json:"display"`
}

// GalleryPage is one page of the arranged gallery
type GalleryPage struct {
	Items  []GalleryItem `json:"items"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// GalleryQuery filters and pages the gallery
type GalleryQuery struct {
	Author string
	Offset int
	Limit  int
	DPR    float64
}

// ImageDetail is a single image with its full ladder
type ImageDetail struct {
	domain.Image
	Ladder       imaging.Ladder `json:"ladder"`
	CommentCount int            `json:"comment_count"`
}

// GalleryService defines catalog browsing
type GalleryService interface {
	ListImages(ctx context.Context, q GalleryQuery) (*GalleryPage, error)
	GetImage(ctx context.Context, id int64) (*ImageDetail, error)
	SelectVariant(ctx context.Context, id int64, width int, zoom float64) (imaging.Selection, error)
	Refresh(ctx context.Context) (int, error)
}

// UserService records users on login
type UserService interface {
	Login(ctx context.Context, email, name, avatarURL string) (*domain.User, error)
}

// FavoriteService defines business logic for favorites
type FavoriteService interface {
	ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
	AddFavorite(ctx context.Context, userID string, imageID int64) (*domain.Favorite, error)
	RemoveFavorite(ctx context.Context, userID string, imageID int64) error
	ToggleFavorite(ctx context.Context, userID string, imageID int64) (bool, error)
}

// CollectionService defines business logic for collections
type CollectionService interface {
	CreateCollection(ctx context.Context, userID, name, description string) (*domain.Collection, error)
	GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error)
	GetSharedCollection(ctx context.Context, id string) (*domain.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	UpdateCollection(ctx context.Context, userID, id, name, description string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, id string) error

	AddMember(ctx context.Context, userID, collectionID string, favoriteID int64) (*domain.CollectionMember, error)
	AddMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]domain.CollectionMember, error)
	RemoveMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) (int, error)
	ToggleSelection(ctx context.Context, userID, collectionID string, favoriteID int64) ([]int64, error)
	Selection(ctx context.Context, userID, collectionID string) ([]int64, error)
	RemoveSelected(ctx context.Context, userID, collectionID string) (int, error)
	SetOrder(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]int64, error)
	MoveMember(ctx context.Context, userID, collectionID string, source, target int64, side reorder.Side) ([]int64, error)
	Export(ctx context.Context, userID, collectionID string) (*export.Archive, error)
}

// CommentService defines business logic for comments
type CommentService interface {
	ListComments(ctx context.Context, imageID int64) ([]domain.Comment, error)
	CountComments(ctx context.Context, imageID int64) (int, error)
	AddComment(ctx context.Context, userID string, imageID int64, content string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, userID, id, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, userID, id string) error
	ListMyComments(ctx context.Context, userID string) ([]domain.CommentWithImage, error)
}
