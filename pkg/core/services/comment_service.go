package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type CommentService struct {
	repo   ports.CommentRepository
	images ImageFinder
	now    func() time.Time
}

func NewCommentService(repo ports.CommentRepository, images ImageFinder) *CommentService {
	return &CommentService{repo: repo, images: images, now: func() time.Time { return time.Now().UTC() }}
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment is empty", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return "", fmt.Errorf("%w: comment is longer than %d characters", domain.ErrInvalidInput, domain.MaxCommentLength)
	}
	return content, nil
}

func (s *CommentService) ListComments(ctx context.Context, imageID int64) ([]domain.Comment, error) {
	return s.repo.ListCommentsByImage(ctx, imageID)
}

func (s *CommentService) CountComments(ctx context.Context, imageID int64) (int, error) {
	return s.repo.CountComments(ctx, imageID)
}

func (s *CommentService) ListMyComments(ctx context.Context, userID string) ([]domain.CommentWithImage, error) {
	return s.repo.ListCommentsByUser(ctx, userID)
}

func (s *CommentService) AddComment(ctx context.Context, userID string, imageID int64, content string) (*domain.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.images.Image(ctx, imageID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageID:   imageID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.repo.GetComment(ctx, comment.ID)
}

// UpdateComment edits a comment. Only its author may do so.
func (s *CommentService) UpdateComment(ctx context.Context, userID, id, content string) (*domain.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.checkAuthor(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateComment(ctx, userID, id, content, s.now()); err != nil {
		return nil, err
	}
	return s.repo.GetComment(ctx, id)
}

// DeleteComment removes a comment. Only its author may do so.
func (s *CommentService) DeleteComment(ctx context.Context, userID, id string) error {
	if err := s.checkAuthor(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, userID, id)
}

func (s *CommentService) checkAuthor(ctx context.Context, userID, id string) error {
	existing, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return fmt.Errorf("comment %s: %w", id, domain.ErrForbidden)
	}
	return nil
}
