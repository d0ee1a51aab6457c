package reorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// memStore keeps display orders the way the database does: one value per
// member, updated one at a time.
type memStore struct {
	mu      sync.Mutex
	order   map[int64]int
	failAt  int // index of the update that fails, -1 for none
	commits int
	block   chan struct{}
	entered chan struct{}
}

func newMemStore(ids ...int64) *memStore {
	s := &memStore{order: make(map[int64]int), failAt: -1}
	for i, id := range ids {
		s.order[id] = i
	}
	return s
}

func (s *memStore) LoadOrder(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.order))
	for id, pos := range s.order {
		out[pos] = id
	}
	return out, nil
}

func (s *memStore) CommitOrder(ctx context.Context, ids []int64) error {
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	if s.failAt >= 0 {
		return errors.New("connection reset")
	}
	for i, id := range ids {
		s.order[id] = i
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func loadedEngine(t *testing.T, store *memStore) *Engine {
	t.Helper()
	e := NewEngine(store, quietLogger())
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestEngine_DragHoverDrop(t *testing.T) {
	store := newMemStore(A, B, C, D, E)
	e := loadedEngine(t, store)

	require.NoError(t, e.BeginDrag(A))
	assert.Equal(t, Dragging, e.Snapshot().State)

	require.NoError(t, e.Hover(C, After))
	snap := e.Snapshot()
	assert.Equal(t, HoveringTarget, snap.State)
	assert.Equal(t, C, snap.Target)
	assert.Equal(t, After, snap.Side)

	got, err := e.Drop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{B, C, A, D, E}, got)
	assert.Equal(t, Idle, e.Snapshot().State)

	// Persisted display orders are exactly 0..4 in the new order
	assert.Equal(t, map[int64]int{B: 0, C: 1, A: 2, D: 3, E: 4}, store.order)
}

func TestEngine_CancelLeavesOrder(t *testing.T) {
	store := newMemStore(A, B, C)
	e := loadedEngine(t, store)

	require.NoError(t, e.BeginDrag(B))
	require.NoError(t, e.Hover(A, Before))
	e.Cancel()

	assert.Equal(t, Idle, e.Snapshot().State)
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, []int64{A, B, C}, e.Members())
}

func TestEngine_DropWithoutTarget(t *testing.T) {
	store := newMemStore(A, B, C)
	e := loadedEngine(t, store)

	require.NoError(t, e.BeginDrag(B))
	require.NoError(t, e.Hover(C, After))
	e.Leave()
	assert.Equal(t, Dragging, e.Snapshot().State)

	got, err := e.Drop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{A, B, C}, got)
	assert.Equal(t, 0, store.commits)
}

func TestEngine_HoverSelfFallsBackToDragging(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B))

	require.NoError(t, e.BeginDrag(A))
	require.NoError(t, e.Hover(A, After))
	assert.Equal(t, Dragging, e.Snapshot().State)
}

func TestEngine_UnknownMembers(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B))

	assert.ErrorIs(t, e.BeginDrag(E), ErrUnknownMember)
	require.NoError(t, e.BeginDrag(A))
	assert.ErrorIs(t, e.Hover(E, Before), ErrUnknownMember)
}

func TestEngine_HoverRequiresDrag(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B))
	assert.Error(t, e.Hover(B, Before))
}

func TestEngine_CommitFailureReloadsStoredOrder(t *testing.T) {
	store := newMemStore(A, B, C)
	store.failAt = 0
	e := loadedEngine(t, store)

	got, err := e.Move(context.Background(), C, A, Before)
	require.Error(t, err)
	assert.Equal(t, []int64{A, B, C}, got)
	assert.Equal(t, []int64{A, B, C}, e.Members())
	assert.Equal(t, Idle, e.Snapshot().State)
}

func TestEngine_BusyWhileCommitting(t *testing.T) {
	store := newMemStore(A, B, C)
	store.block = make(chan struct{})
	store.entered = make(chan struct{})
	e := loadedEngine(t, store)

	done := make(chan error, 1)
	go func() {
		_, err := e.Move(context.Background(), A, C, After)
		done <- err
	}()

	<-store.entered
	assert.Equal(t, Committing, e.Snapshot().State)
	assert.ErrorIs(t, e.BeginDrag(B), domain.ErrBusy)
	_, err := e.Move(context.Background(), B, A, Before)
	assert.ErrorIs(t, err, domain.ErrBusy)
	_, err = e.Apply(context.Background(), []int64{C, B, A})
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(store.block)
	require.NoError(t, <-done)
	assert.Equal(t, []int64{B, C, A}, e.Members())
}

func TestEngine_Apply(t *testing.T) {
	store := newMemStore(A, B, C)
	e := loadedEngine(t, store)

	_, err := e.Apply(context.Background(), []int64{A, B})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := e.Apply(context.Background(), []int64{C, A, B})
	require.NoError(t, err)
	assert.Equal(t, []int64{C, A, B}, got)
}

func TestEngine_TouchHoldStartsDrag(t *testing.T) {
	store := newMemStore(A, B, C)
	e := loadedEngine(t, store)
	e.SetReordering(true)

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cardC := Rect{Left: 0, Top: 200, Width: 100, Height: 100}

	e.TouchStart(A, Point{X: 50, Y: 50}, t0)
	require.NoError(t, e.TouchMove(Point{X: 50, Y: 260}, C, cardC, t0.Add(50*time.Millisecond)))
	assert.Equal(t, Idle, e.Snapshot().State, "moving before the hold delay is a scroll")

	require.NoError(t, e.TouchMove(Point{X: 50, Y: 270}, C, cardC, t0.Add(250*time.Millisecond)))
	snap := e.Snapshot()
	assert.Equal(t, HoveringTarget, snap.State)
	assert.Equal(t, After, snap.Side)

	g, err := e.TouchEnd(context.Background(), Point{X: 50, Y: 270}, t0.Add(400*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, GestureDrop, g)
	assert.Equal(t, []int64{B, C, A}, e.Members())
}

func TestEngine_TouchReleaseWithoutTargetCancels(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B))
	e.SetReordering(true)

	t0 := time.Now()
	e.TouchStart(A, Point{}, t0)
	require.NoError(t, e.TouchMove(Point{X: 5}, 0, Rect{}, t0.Add(300*time.Millisecond)))
	assert.Equal(t, Dragging, e.Snapshot().State)

	g, err := e.TouchEnd(context.Background(), Point{X: 5}, t0.Add(400*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, GestureCancel, g)
	assert.Equal(t, Idle, e.Snapshot().State)
}

func TestEngine_SwipeTogglesSelection(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B, C))

	t0 := time.Now()
	e.TouchStart(C, Point{X: 100, Y: 100}, t0)
	g, err := e.TouchEnd(context.Background(), Point{X: 170, Y: 105}, t0.Add(120*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, GestureSwipeSelect, g)

	e.TouchStart(A, Point{X: 100, Y: 100}, t0)
	_, _ = e.TouchEnd(context.Background(), Point{X: 20, Y: 100}, t0.Add(120*time.Millisecond))
	assert.Equal(t, []int64{A, C}, e.Selected())

	// Slow movement is not a swipe
	e.TouchStart(A, Point{X: 100, Y: 100}, t0)
	g, _ = e.TouchEnd(context.Background(), Point{X: 20, Y: 100}, t0.Add(time.Second))
	assert.Equal(t, GestureNone, g)
	assert.Equal(t, []int64{A, C}, e.Selected())

	e.ClearSelection()
	assert.Empty(t, e.Selected())
}

func TestEngine_SwipeIgnoredWhileReordering(t *testing.T) {
	e := loadedEngine(t, newMemStore(A, B))
	e.SetReordering(true)

	t0 := time.Now()
	e.TouchStart(B, Point{X: 100, Y: 100}, t0)
	g, err := e.TouchEnd(context.Background(), Point{X: 200, Y: 100}, t0.Add(100*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, GestureNone, g)
	assert.Empty(t, e.Selected())
}

func TestRegistry_OneEnginePerCollection(t *testing.T) {
	r := NewRegistry(quietLogger())
	store := newMemStore(A)

	first := r.Engine("c1", store)
	assert.Same(t, first, r.Engine("c1", store))
	assert.NotSame(t, first, r.Engine("c2", store))

	r.Forget("c1")
	assert.NotSame(t, first, r.Engine("c1", store))
}

type panickyStore struct {
	*memStore
	panics bool
}

func (s *panickyStore) CommitOrder(ctx context.Context, ids []int64) error {
	if s.panics {
		s.panics = false
		panic("driver bug")
	}
	return s.memStore.CommitOrder(ctx, ids)
}

func TestEngine_PanicInCommitReturnsToIdle(t *testing.T) {
	store := &panickyStore{memStore: newMemStore(A, B, C), panics: true}
	e := NewEngine(store, quietLogger())
	require.NoError(t, e.Load(context.Background()))

	assert.PanicsWithValue(t, "driver bug", func() {
		_, _ = e.Move(context.Background(), A, C, After)
	})
	assert.Equal(t, Idle, e.Snapshot().State)
	assert.False(t, e.Busy())

	got, err := e.Move(context.Background(), A, C, After)
	require.NoError(t, err)
	assert.Equal(t, []int64{B, C, A}, got)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(quietLogger(), WithCapacity(2))
	store := newMemStore(A)

	c1 := r.Engine("c1", store)
	r.Engine("c2", store)
	assert.Same(t, c1, r.Engine("c1", store))

	r.Engine("c3", store)
	assert.Equal(t, 2, r.Len())
	assert.Same(t, c1, r.Engine("c1", store), "recently used engine kept")
}

func TestRegistry_KeepsBusyEngines(t *testing.T) {
	r := NewRegistry(quietLogger(), WithCapacity(1))
	store := newMemStore(A, B)

	busy := r.Engine("c1", store)
	require.NoError(t, busy.Load(context.Background()))
	require.NoError(t, busy.BeginDrag(A))

	r.Engine("c2", store)
	assert.Equal(t, 2, r.Len())
	assert.Same(t, busy, r.Engine("c1", store))
}

func TestRegistry_Discard(t *testing.T) {
	r := NewRegistry(quietLogger())
	store := newMemStore(A)

	for i := 0; i < 100; i++ {
		e := r.Engine("missing", store)
		r.Discard("missing", e)
	}
	assert.Zero(t, r.Len())

	kept := r.Engine("c1", store)
	r.Discard("c1", NewEngine(store, quietLogger()))
	assert.Same(t, kept, r.Engine("c1", store), "only the same engine is discarded")
}
