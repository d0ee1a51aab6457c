package services

import (
	"context"
	"errors"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

// ImageFinder resolves catalog images by id
type ImageFinder interface {
	Image(ctx context.Context, id int64) (*domain.Image, error)
}

type FavoriteService struct {
	repo   ports.FavoriteRepository
	images ImageFinder
}

func NewFavoriteService(repo ports.FavoriteRepository, images ImageFinder) *FavoriteService {
	return &FavoriteService{repo: repo, images: images}
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return s.repo.ListFavorites(ctx, userID)
}

// AddFavorite is idempotent: favoriting an image twice returns the existing
// favorite.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID string, imageID int64) (*domain.Favorite, error) {
	img, err := s.images.Image(ctx, imageID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetFavorite(ctx, userID, imageID)
	if err == nil {
		existing.Image = img
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	fav := &domain.Favorite{UserID: userID, ImageID: imageID}
	if err := s.repo.AddFavorite(ctx, fav); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// lost a race with a concurrent add
			return s.repo.GetFavorite(ctx, userID, imageID)
		}
		return nil, err
	}
	fav.Image = img
	return fav, nil
}

// RemoveFavorite deletes the favorite and takes it out of every collection.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID string, imageID int64) error {
	return s.repo.RemoveFavorite(ctx, userID, imageID)
}

// ToggleFavorite adds or removes the favorite and reports whether the image
// is now a favorite.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, userID string, imageID int64) (bool, error) {
	_, err := s.repo.GetFavorite(ctx, userID, imageID)
	switch {
	case err == nil:
		return false, s.repo.RemoveFavorite(ctx, userID, imageID)
	case errors.Is(err, domain.ErrNotFound):
		_, err := s.AddFavorite(ctx, userID, imageID)
		return err == nil, err
	default:
		return false, err
	}
}
