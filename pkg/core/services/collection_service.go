package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/export"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/reorder"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

const (
	MaxCollectionNameLength        = 100
	MaxCollectionDescriptionLength = 500
)

// CommitRecorder is told about every persisted reorder
type CommitRecorder interface {
	ReorderCommitted(ok bool)
}

type CollectionService struct {
	repo     ports.CollectionRepository
	registry *reorder.Registry
	exporter *export.Pipeline
	commits  CommitRecorder
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewCollectionService(repo ports.CollectionRepository, registry *reorder.Registry, exporter *export.Pipeline, commits CommitRecorder, log logrus.FieldLogger) *CollectionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CollectionService{
		repo:     repo,
		registry: registry,
		exporter: exporter,
		commits:  commits,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

func validateCollection(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return "", "", fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxCollectionNameLength {
		return "", "", fmt.Errorf("%w: collection name is longer than %d characters", domain.ErrInvalidInput, MaxCollectionNameLength)
	}
	if utf8.RuneCountInString(description) > MaxCollectionDescriptionLength {
		return "", "", fmt.Errorf("%w: description is longer than %d characters", domain.ErrInvalidInput, MaxCollectionDescriptionLength)
	}
	return name, description, nil
}

func (s *CollectionService) CreateCollection(ctx context.Context, userID, name, description string) (*domain.Collection, error) {
	name, description, err := validateCollection(name, description)
	if err != nil {
		return nil, err
	}

	now := s.now()
	collection := &domain.Collection{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error) {
	return s.repo.GetCollection(ctx, userID, id)
}

// GetSharedCollection serves share links: anyone holding the id can view.
func (s *CollectionService) GetSharedCollection(ctx context.Context, id string) (*domain.Collection, error) {
	return s.repo.GetSharedCollection(ctx, id)
}

func (s *CollectionService) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	return s.repo.ListCollections(ctx, userID)
}

func (s *CollectionService) UpdateCollection(ctx context.Context, userID, id, name, description string) (*domain.Collection, error) {
	name, description, err := validateCollection(name, description)
	if err != nil {
		return nil, err
	}
	collection, err := s.repo.GetCollection(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	collection.Name = name
	collection.Description = description
	collection.UpdatedAt = s.now()
	if err := s.repo.UpdateCollection(ctx, userID, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) DeleteCollection(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteCollection(ctx, userID, id); err != nil {
		return err
	}
	s.registry.Forget(engineKey(userID, id))
	return nil
}

func (s *CollectionService) AddMember(ctx context.Context, userID, collectionID string, favoriteID int64) (*domain.CollectionMember, error) {
	if favoriteID <= 0 {
		return nil, fmt.Errorf("%w: favorite id is required", domain.ErrInvalidInput)
	}
	return s.repo.AddMember(ctx, userID, collectionID, favoriteID)
}

// AddMembers appends favorites in request order. Either all are added or,
// on the first unknown or duplicate id, none.
func (s *CollectionService) AddMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]domain.CollectionMember, error) {
	if len(favoriteIDs) == 0 {
		return nil, fmt.Errorf("%w: no favorites given", domain.ErrInvalidInput)
	}
	for _, id := range favoriteIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid favorite id %d", domain.ErrInvalidInput, id)
		}
	}
	return s.repo.AddMembers(ctx, userID, collectionID, favoriteIDs)
}

func (s *CollectionService) RemoveMembers(ctx context.Context, userID, collectionID string, favoriteIDs []int64) (int, error) {
	if len(favoriteIDs) == 0 {
		return 0, fmt.Errorf("%w: no favorites given", domain.ErrInvalidInput)
	}
	return s.repo.RemoveMembers(ctx, userID, collectionID, favoriteIDs)
}

// ToggleSelection flips favoriteID in the bulk-removal selection of a
// collection and returns the selection in display order.
func (s *CollectionService) ToggleSelection(ctx context.Context, userID, collectionID string, favoriteID int64) ([]int64, error) {
	engine, err := s.engine(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(engine.Members(), favoriteID) {
		return nil, fmt.Errorf("%w: %d is not a member", domain.ErrInvalidInput, favoriteID)
	}
	engine.ToggleSelect(favoriteID)
	return engine.Selected(), nil
}

// Selection returns the selected members in display order.
func (s *CollectionService) Selection(ctx context.Context, userID, collectionID string) ([]int64, error) {
	engine, err := s.engine(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	return engine.Selected(), nil
}

// RemoveSelected removes every selected member and clears the selection.
func (s *CollectionService) RemoveSelected(ctx context.Context, userID, collectionID string) (int, error) {
	engine, err := s.engine(ctx, userID, collectionID)
	if err != nil {
		return 0, err
	}
	selected := engine.Selected()
	if len(selected) == 0 {
		return 0, fmt.Errorf("%w: nothing selected", domain.ErrInvalidInput)
	}
	n, err := s.repo.RemoveMembers(ctx, userID, collectionID, selected)
	if err != nil {
		return 0, err
	}
	engine.ClearSelection()
	if err := engine.Load(ctx); err != nil {
		s.log.WithError(err).WithField("collection_id", collectionID).Warn("reload after removal failed")
	}
	return n, nil
}

// SetOrder replaces the member order. favoriteIDs must list every member
// exactly once. Returns the order as stored.
func (s *CollectionService) SetOrder(ctx context.Context, userID, collectionID string, favoriteIDs []int64) ([]int64, error) {
	engine, err := s.engine(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	return engine.Apply(ctx, favoriteIDs)
}

// MoveMember drops source before or after target. Returns the order as
// stored, which on failure is the previous order.
func (s *CollectionService) MoveMember(ctx context.Context, userID, collectionID string, source, target int64, side reorder.Side) ([]int64, error) {
	engine, err := s.engine(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	order, err := engine.Move(ctx, source, target, side)
	if errors.Is(err, reorder.ErrUnknownMember) {
		return order, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return order, err
}

// Export builds the ZIP archive of a collection in display order.
func (s *CollectionService) Export(ctx context.Context, userID, collectionID string) (*export.Archive, error) {
	collection, err := s.repo.GetCollection(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	if len(collection.Members) == 0 {
		return nil, fmt.Errorf("%w: collection has no images", domain.ErrInvalidInput)
	}

	items := make([]export.Item, 0, len(collection.Members))
	for _, m := range collection.Members {
		item := export.Item{ImageID: m.ImageID}
		if m.Image != nil {
			item.URL, item.Title, item.Author = m.Image.URL, m.Image.Title, m.Image.Author
		}
		items = append(items, item)
	}

	return s.exporter.Export(ctx, export.Collection{ID: collection.ID, Name: collection.Name, Items: items})
}

func engineKey(userID, collectionID string) string {
	return userID + "/" + collectionID
}

// engine returns the loaded reorder engine of a collection owned by userID.
func (s *CollectionService) engine(ctx context.Context, userID, collectionID string) (*reorder.Engine, error) {
	store := &memberStore{repo: s.repo, userID: userID, collectionID: collectionID, commits: s.commits}
	key := engineKey(userID, collectionID)
	engine := s.registry.Engine(key, store)
	if err := engine.Load(ctx); err != nil {
		s.registry.Discard(key, engine)
		return nil, err
	}
	return engine, nil
}

// memberStore adapts the collection repository to the reorder engine
type memberStore struct {
	repo         ports.CollectionRepository
	userID       string
	collectionID string
	commits      CommitRecorder
}

func (m *memberStore) LoadOrder(ctx context.Context) ([]int64, error) {
	return m.repo.ListMemberOrder(ctx, m.userID, m.collectionID)
}

func (m *memberStore) CommitOrder(ctx context.Context, favoriteIDs []int64) error {
	err := m.repo.ReplaceMemberOrder(ctx, m.userID, m.collectionID, favoriteIDs)
	if m.commits != nil {
		m.commits.ReorderCommitted(err == nil)
	}
	return err
}
