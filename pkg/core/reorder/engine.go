package reorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
)

// State of a collection's reorder interaction
type State int

const (
	Idle State = iota
	Dragging
	HoveringTarget
	Committing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case HoveringTarget:
		return "hovering"
	case Committing:
		return "committing"
	default:
		return "idle"
	}
}

// Store persists the member order of one collection. CommitOrder receives
// the full list; position i becomes display order i.
type Store interface {
	LoadOrder(ctx context.Context) ([]int64, error)
	CommitOrder(ctx context.Context, favoriteIDs []int64) error
}

// Snapshot is a copy of the engine state
type Snapshot struct {
	State  State
	Source int64
	Target int64
	Side   Side
}

// Engine drives reordering of one collection. The member list it holds is
// only ever replaced by what the store returns, never by a local guess.
type Engine struct {
	mu         sync.Mutex
	store      Store
	log        logrus.FieldLogger
	reordering bool
	state      State
	members    []int64
	source     int64
	target     int64
	side       Side
	selected   map[int64]struct{}
	touch      touchState
}

// NewEngine creates an idle engine. Call Load before the first gesture.
func NewEngine(store Store, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store:    store,
		log:      log,
		selected: make(map[int64]struct{}),
	}
}

// Load replaces the member list with the stored order.
func (e *Engine) Load(ctx context.Context) error {
	ids, err := e.store.LoadOrder(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.members = ids
	for id := range e.selected {
		if indexOf(ids, id) < 0 {
			delete(e.selected, id)
		}
	}
	e.mu.Unlock()
	return nil
}

// Members returns the current member order.
func (e *Engine) Members() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int64(nil), e.members...)
}

// Busy reports whether a drag or a commit is in progress.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != Idle
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{State: e.state, Source: e.source, Target: e.target, Side: e.side}
}

// SetReordering switches between reorder mode (touch drags) and selection
// mode (swipes toggle selection). Leaving reorder mode cancels a drag.
func (e *Engine) SetReordering(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reordering = on
	if !on && (e.state == Dragging || e.state == HoveringTarget) {
		e.resetLocked()
	}
}

// BeginDrag starts dragging source. A stale drag is replaced.
func (e *Engine) BeginDrag(source int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginLocked(source)
}

func (e *Engine) beginLocked(source int64) error {
	if e.state == Committing {
		return domain.ErrBusy
	}
	if indexOf(e.members, source) < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownMember, source)
	}
	e.state = Dragging
	e.source = source
	e.target = 0
	return nil
}

// Hover records the member under the pointer and the insertion side.
// Hovering the dragged member itself goes back to plain dragging.
func (e *Engine) Hover(target int64, side Side) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hoverLocked(target, side)
}

func (e *Engine) hoverLocked(target int64, side Side) error {
	if e.state != Dragging && e.state != HoveringTarget {
		return fmt.Errorf("hover while %s", e.state)
	}
	if indexOf(e.members, target) < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownMember, target)
	}
	if target == e.source {
		e.state = Dragging
		e.target = 0
		return nil
	}
	e.state = HoveringTarget
	e.target = target
	e.side = side
	return nil
}

// Leave drops the hover target, for a pointer that left the container.
func (e *Engine) Leave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == HoveringTarget {
		e.state = Dragging
		e.target = 0
	}
}

// Cancel aborts the drag without touching the order.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Committing {
		e.resetLocked()
	}
}

func (e *Engine) resetLocked() {
	e.state = Idle
	e.source = 0
	e.target = 0
	e.side = Before
}

// Drop finishes the drag. Without a hover target nothing changes.
func (e *Engine) Drop(ctx context.Context) ([]int64, error) {
	e.mu.Lock()
	if e.state != HoveringTarget {
		e.resetLocked()
		members := append([]int64(nil), e.members...)
		e.mu.Unlock()
		return members, nil
	}
	order, err := Move(e.members, e.source, e.target, e.side)
	if err != nil {
		e.resetLocked()
		e.mu.Unlock()
		return nil, err
	}
	e.state = Committing
	e.mu.Unlock()

	return e.commit(ctx, order)
}

// Move performs a whole drag of source onto target in one step.
func (e *Engine) Move(ctx context.Context, source, target int64, side Side) ([]int64, error) {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if err := e.beginLocked(source); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if err := e.hoverLocked(target, side); err != nil {
		e.resetLocked()
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()
	return e.Drop(ctx)
}

// Apply commits a complete new order, which must be a permutation of the
// current members.
func (e *Engine) Apply(ctx context.Context, order []int64) ([]int64, error) {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if !IsPermutation(e.members, order) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: order must list every member exactly once", domain.ErrInvalidInput)
	}
	e.state = Committing
	e.mu.Unlock()

	return e.commit(ctx, append([]int64(nil), order...))
}

// commit persists order and reloads the canonical list. The engine is in
// Committing on entry and Idle on return.
func (e *Engine) commit(ctx context.Context, order []int64) ([]int64, error) {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.resetLocked()
			e.mu.Unlock()
			panic(r)
		}
	}()

	commitErr := e.store.CommitOrder(ctx, order)
	if commitErr != nil {
		e.log.WithError(commitErr).WithField("members", len(order)).Error("reorder commit failed")
	}

	ids, loadErr := e.store.LoadOrder(ctx)
	e.mu.Lock()
	if loadErr == nil {
		e.members = ids
	} else {
		e.log.WithError(loadErr).Warn("reload after reorder failed")
	}
	members := append([]int64(nil), e.members...)
	e.resetLocked()
	e.mu.Unlock()

	if commitErr != nil {
		return members, fmt.Errorf("commit order: %w", commitErr)
	}
	if loadErr != nil {
		return members, fmt.Errorf("reload order: %w", loadErr)
	}
	return members, nil
}

// ToggleSelect flips the selection of a member.
func (e *Engine) ToggleSelect(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.selected[id]; ok {
		delete(e.selected, id)
		return false
	}
	e.selected[id] = struct{}{}
	return true
}

// Selected returns the selected members in display order.
func (e *Engine) Selected() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []int64
	for _, id := range e.members {
		if _, ok := e.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[int64]struct{})
}

// TouchStart records a finger resting on member.
func (e *Engine) TouchStart(member int64, p Point, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch = touchState{active: true, member: member, start: p, at: at}
}

// TouchMove promotes a held touch to a drag once HoldDelay has passed and
// then tracks the member under the finger. over is 0 when the finger is
// not above a member.
func (e *Engine) TouchMove(p Point, over int64, overRect Rect, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.touch.active || !e.reordering {
		return nil
	}
	if e.state == Idle {
		if at.Sub(e.touch.at) < HoldDelay {
			return nil
		}
		if err := e.beginLocked(e.touch.member); err != nil {
			return err
		}
	}
	if over == 0 || over == e.source {
		return nil
	}
	return e.hoverLocked(over, SideFor(overRect, p))
}

// TouchEnd finishes a touch. In reorder mode a hovered drag is dropped;
// otherwise a quick horizontal swipe toggles the touched member's
// selection.
func (e *Engine) TouchEnd(ctx context.Context, p Point, at time.Time) (Gesture, error) {
	e.mu.Lock()
	touch := e.touch
	e.touch = touchState{}
	if !touch.active {
		e.mu.Unlock()
		return GestureNone, nil
	}

	if e.reordering {
		switch e.state {
		case HoveringTarget:
			e.mu.Unlock()
			_, err := e.Drop(ctx)
			return GestureDrop, err
		case Dragging:
			e.resetLocked()
			e.mu.Unlock()
			return GestureCancel, nil
		}
		e.mu.Unlock()
		return GestureNone, nil
	}
	e.mu.Unlock()

	if IsSwipe(touch.start, p, at.Sub(touch.at)) {
		e.ToggleSelect(touch.member)
		return GestureSwipeSelect, nil
	}
	return GestureNone, nil
}
