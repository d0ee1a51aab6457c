package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/export"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/gallery"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/imaging"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/mosaic"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/reorder"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type commitCounter struct{ ok, failed int }

func (c *commitCounter) ReorderCommitted(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

type testEnv struct {
	repo     *sqlstore.Repository
	cache    *gallery.Cache
	gallery  *GalleryService
	users    *UserService
	favs     *FavoriteService
	cols     *CollectionService
	comments *CommentService
	commits  *commitCounter
	registry *reorder.Registry
	images   []domain.Image
	failURL  string
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newEnv seeds a placeholder followed by 14 images. Odd images are by
// Ansel, even ones by Dorothea; image 3 is horizontal.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	repo, err := sqlstore.New(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	env := &testEnv{repo: repo, commits: &commitCounter{}}
	for i := 0; i <= 14; i++ {
		img := domain.Image{
			URL:         fmt.Sprintf("https://cdn.example.com/raw/img%d.jpg", i),
			Title:       fmt.Sprintf("Image %d", i),
			Author:      "Dorothea",
			Orientation: domain.OrientationVertical,
			Width:       2000,
			BaseURL:     "https://cdn.example.com/gallery",
			Filename:    fmt.Sprintf("img%d.jpg", i),
		}
		if i == 0 {
			img.URL = "https://cdn.example.com/raw/000_aaa_pad.jpg"
		}
		if i%2 == 1 {
			img.Author = "Ansel"
		}
		if i == 3 {
			img.Orientation = domain.OrientationHorizontal
		}
		require.NoError(t, repo.UpsertImage(ctx, &img))
		env.images = append(env.images, img)
	}
	env.failURL = env.images[2].URL

	selector, err := imaging.NewSelector(64)
	require.NoError(t, err)
	env.cache = gallery.NewCache(repo)
	env.gallery = NewGalleryService(env.cache, selector, repo, quietLog())
	env.users = NewUserService(repo)
	env.favs = NewFavoriteService(repo, env.cache)
	env.comments = NewCommentService(repo, env.cache)

	fetcher := export.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if url == env.failURL {
			return nil, errors.New("HTTP 403")
		}
		return []byte("bytes of " + url), nil
	})
	pipeline := export.NewPipeline(fetcher, export.WithLogger(quietLog()))
	env.registry = reorder.NewRegistry(quietLog())
	env.cols = NewCollectionService(repo, env.registry, pipeline, env.commits, quietLog())
	return env
}

func (e *testEnv) login(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.Login(context.Background(), email, "", "")
	require.NoError(t, err)
	return u
}

func TestGallery_ListArrangesAndPages(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	page, err := env.gallery.ListImages(ctx, ports.GalleryQuery{Offset: 10, Limit: 3, DPR: 2})
	require.NoError(t, err)
	assert.Equal(t, 14, page.Total, "placeholder is not listed")
	require.Len(t, page.Items, 3)

	large := page.Items[1]
	assert.Equal(t, env.images[12].ID, large.ID)
	assert.Equal(t, mosaic.VariantLarge, large.Layout.Variant)
	assert.Equal(t, 1200, large.Display.Width, "471px at 2x")

	normal := page.Items[0]
	assert.Equal(t, mosaic.VariantNormal, normal.Layout.Variant)
	assert.Equal(t, "https://cdn.example.com/gallery/w600/img11.webp", normal.Display.URL)

	first, err := env.gallery.ListImages(ctx, ports.GalleryQuery{Limit: 8})
	require.NoError(t, err)
	assert.Equal(t, "landscape", first.Items[2].Layout.CSSClass)
	assert.Equal(t, mosaic.VariantTall, first.Items[5].Layout.Variant)
	assert.Equal(t, mosaic.VariantWide, first.Items[7].Layout.Variant)
	assert.Equal(t, 400, first.Items[0].Display.Width, "231px at 1x")
}

func TestGallery_AuthorFilter(t *testing.T) {
	env := newEnv(t)
	page, err := env.gallery.ListImages(context.Background(), ports.GalleryQuery{Author: "ansel"})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	for _, it := range page.Items {
		assert.Equal(t, "Ansel", it.Author)
	}
}

func TestGallery_ImageDetailAndZoom(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	id := env.images[1].ID

	u := env.login(t, "ada@example.com")
	_, err := env.comments.AddComment(ctx, u.ID, id, "nice")
	require.NoError(t, err)

	detail, err := env.gallery.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Ladder, 6)
	assert.Equal(t, 2000, detail.Ladder.Largest().Width)
	assert.Equal(t, 1, detail.CommentCount)

	sel, err := env.gallery.SelectVariant(ctx, id, 400, 2.5)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/gallery/w1200/img1.webp", sel.URL)

	_, err = env.gallery.GetImage(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGallery_Refresh(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	_, err := env.gallery.ListImages(ctx, ports.GalleryQuery{})
	require.NoError(t, err)

	require.NoError(t, env.repo.UpsertImage(ctx, &domain.Image{URL: "https://cdn.example.com/raw/new.jpg"}))
	n, err := env.gallery.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	page, err := env.gallery.ListImages(ctx, ports.GalleryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 15, page.Total)
}

func TestFavorites_IdempotentAndToggle(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	img := env.images[4].ID

	first, err := env.favs.AddFavorite(ctx, u.ID, img)
	require.NoError(t, err)
	again, err := env.favs.AddFavorite(ctx, u.ID, img)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	require.NotNil(t, again.Image)

	_, err = env.favs.AddFavorite(ctx, u.ID, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	on, err := env.favs.ToggleFavorite(ctx, u.ID, img)
	require.NoError(t, err)
	assert.False(t, on)
	on, err = env.favs.ToggleFavorite(ctx, u.ID, img)
	require.NoError(t, err)
	assert.True(t, on)

	list, err := env.favs.ListFavorites(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// collectionWith creates a collection of u holding favorites of the given
// images, in that order. Returns the favorite ids.
func (e *testEnv) collectionWith(t *testing.T, u *domain.User, images ...int) (*domain.Collection, []int64) {
	t.Helper()
	ctx := context.Background()
	c, err := e.cols.CreateCollection(ctx, u.ID, "  Summer  ", "")
	require.NoError(t, err)
	var ids []int64
	for _, i := range images {
		fav, err := e.favs.AddFavorite(ctx, u.ID, e.images[i].ID)
		require.NoError(t, err)
		_, err = e.cols.AddMember(ctx, u.ID, c.ID, fav.ID)
		require.NoError(t, err)
		ids = append(ids, fav.ID)
	}
	return c, ids
}

func TestCollections_CreateValidates(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")

	_, err := env.cols.CreateCollection(ctx, u.ID, "   ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.cols.CreateCollection(ctx, u.ID, strings.Repeat("x", MaxCollectionNameLength+1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c, err := env.cols.CreateCollection(ctx, u.ID, "  Summer  ", "beach days")
	require.NoError(t, err)
	assert.Equal(t, "Summer", c.Name)
	assert.Len(t, c.ID, 26, "ulid")

	updated, err := env.cols.UpdateCollection(ctx, u.ID, c.ID, "Winter", "")
	require.NoError(t, err)
	assert.Equal(t, "Winter", updated.Name)
}

func TestCollections_MoveMember(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, ids := env.collectionWith(t, u, 1, 2, 4, 5, 6)
	a, b, cc, d, e := ids[0], ids[1], ids[2], ids[3], ids[4]

	order, err := env.cols.MoveMember(ctx, u.ID, c.ID, a, cc, reorder.After)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, cc, a, d, e}, order)

	got, err := env.cols.GetCollection(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, cc, a, d, e}, got.FavoriteIDs())
	for i, m := range got.Members {
		assert.Equal(t, i, m.DisplayOrder)
	}

	order, err = env.cols.MoveMember(ctx, u.ID, c.ID, e, b, reorder.Before)
	require.NoError(t, err)
	assert.Equal(t, []int64{e, b, cc, a, d}, order)

	_, err = env.cols.MoveMember(ctx, u.ID, c.ID, a, 424242, reorder.After)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 2, env.commits.ok)
}

func TestCollections_SetOrder(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, ids := env.collectionWith(t, u, 1, 2, 4)

	order, err := env.cols.SetOrder(ctx, u.ID, c.ID, []int64{ids[2], ids[0], ids[1]})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[0], ids[1]}, order)

	_, err = env.cols.SetOrder(ctx, u.ID, c.ID, []int64{ids[2], ids[0]})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.cols.SetOrder(ctx, u.ID, c.ID, []int64{ids[0], ids[0], ids[1]})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollections_OtherUsersCannotReorder(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	owner := env.login(t, "ada@example.com")
	other := env.login(t, "bob@example.com")
	c, ids := env.collectionWith(t, owner, 1, 2)

	_, err := env.cols.MoveMember(ctx, other.ID, c.ID, ids[0], ids[1], reorder.After)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.cols.GetCollection(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	shared, err := env.cols.GetSharedCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, shared.FavoriteIDs())
}

func TestCollections_RemoveAndDelete(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, ids := env.collectionWith(t, u, 1, 2, 4)

	_, err := env.cols.RemoveMembers(ctx, u.ID, c.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	n, err := env.cols.RemoveMembers(ctx, u.ID, c.ID, []int64{ids[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	order, err := env.cols.MoveMember(ctx, u.ID, c.ID, ids[2], ids[1], reorder.Before)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[1]}, order)

	require.NoError(t, env.cols.DeleteCollection(ctx, u.ID, c.ID))
	_, err = env.cols.GetCollection(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollections_FailedLoadsKeepNoEngine(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	owner := env.login(t, "ada@example.com")
	other := env.login(t, "bob@example.com")
	c, ids := env.collectionWith(t, owner, 1, 2)

	for i := 0; i < 50; i++ {
		_, err := env.cols.MoveMember(ctx, owner.ID, fmt.Sprintf("missing-%d", i), 1, 2, reorder.After)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = env.cols.SetOrder(ctx, other.ID, c.ID, ids)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Zero(t, env.registry.Len())

	_, err := env.cols.MoveMember(ctx, owner.ID, c.ID, ids[0], ids[1], reorder.After)
	require.NoError(t, err)
	assert.Equal(t, 1, env.registry.Len())
}

func TestCollections_AddMembersAllOrNothing(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, ids := env.collectionWith(t, u, 1)
	fav, err := env.favs.AddFavorite(ctx, u.ID, env.images[2].ID)
	require.NoError(t, err)

	_, err = env.cols.AddMembers(ctx, u.ID, c.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.cols.AddMembers(ctx, u.ID, c.ID, []int64{fav.ID, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.cols.AddMembers(ctx, u.ID, c.ID, []int64{fav.ID, ids[0]})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := env.cols.GetCollection(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, got.FavoriteIDs())

	added, err := env.cols.AddMembers(ctx, u.ID, c.ID, []int64{fav.ID})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, 1, added[0].DisplayOrder)
}

func TestCollections_RemoveSelected(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, ids := env.collectionWith(t, u, 1, 2, 4, 5)

	_, err := env.cols.RemoveSelected(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "empty selection")
	_, err = env.cols.ToggleSelection(ctx, u.ID, c.ID, 424242)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, id := range []int64{ids[3], ids[1], ids[0]} {
		_, err := env.cols.ToggleSelection(ctx, u.ID, c.ID, id)
		require.NoError(t, err)
	}
	sel, err := env.cols.ToggleSelection(ctx, u.ID, c.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[3]}, sel, "display order, ids[0] toggled off")

	n, err := env.cols.RemoveSelected(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sel, err = env.cols.Selection(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, sel)

	got, err := env.cols.GetCollection(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0], ids[2]}, got.FavoriteIDs())
	for i, m := range got.Members {
		assert.Equal(t, i, m.DisplayOrder)
	}
}

func TestCollections_Export(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.login(t, "ada@example.com")
	c, _ := env.collectionWith(t, u, 1, 2, 4)

	archive, err := env.cols.Export(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summer_collection.zip", archive.Filename)
	assert.Equal(t, 3, archive.Result.Total)
	assert.Equal(t, 2, archive.Result.Succeeded)
	assert.Equal(t, 1, archive.Result.Failed)
	assert.Equal(t, export.OutcomePartial, archive.Result.Outcome)

	empty, err := env.cols.CreateCollection(ctx, u.ID, "Empty", "")
	require.NoError(t, err)
	_, err = env.cols.Export(ctx, u.ID, empty.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other := env.login(t, "bob@example.com")
	_, err = env.cols.Export(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComments_Lifecycle(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	ada := env.login(t, "ada@example.com")
	bob := env.login(t, "bob@example.com")
	img := env.images[1].ID

	_, err := env.comments.AddComment(ctx, ada.ID, img, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.comments.AddComment(ctx, ada.ID, img, strings.Repeat("é", domain.MaxCommentLength+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.comments.AddComment(ctx, ada.ID, 9999, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := env.comments.AddComment(ctx, ada.ID, img, strings.Repeat("é", domain.MaxCommentLength))
	require.NoError(t, err)
	assert.Equal(t, "ada", c.AuthorName)

	_, err = env.comments.UpdateComment(ctx, bob.ID, c.ID, "mine")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, env.comments.DeleteComment(ctx, bob.ID, c.ID), domain.ErrForbidden)

	updated, err := env.comments.UpdateComment(ctx, ada.ID, c.ID, "  edited  ")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.NotNil(t, updated.UpdatedAt)

	mine, err := env.comments.ListMyComments(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Image 1", mine[0].ImageTitle)

	require.NoError(t, env.comments.DeleteComment(ctx, ada.ID, c.ID))
	n, err := env.comments.CountComments(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
