package reorder

import "time"

const (
	// HoldDelay is how long a touch must rest on a member before it
	// becomes a drag, so that scrolling is not mistaken for reordering.
	HoldDelay = 200 * time.Millisecond

	SwipeMinDX       = 50
	SwipeMaxDY       = 30
	SwipeMaxDuration = 300 * time.Millisecond
)

// Point is a pointer position in client coordinates
type Point struct {
	X, Y float64
}

// Rect is the bounding box of a member element
type Rect struct {
	Left, Top, Width, Height float64
}

// Contains reports whether p lies inside r, right and bottom edges excluded.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// SideFor decides the insertion side from the pointer position. Wide
// elements split on their horizontal midpoint, others on the vertical one.
func SideFor(r Rect, p Point) Side {
	if r.Width > r.Height {
		if p.X > r.Left+r.Width/2 {
			return After
		}
		return Before
	}
	if p.Y > r.Top+r.Height/2 {
		return After
	}
	return Before
}

// IsSwipe reports a quick horizontal swipe between start and end.
func IsSwipe(start, end Point, elapsed time.Duration) bool {
	dx := end.X - start.X
	if dx < 0 {
		dx = -dx
	}
	dy := end.Y - start.Y
	if dy < 0 {
		dy = -dy
	}
	return dx > SwipeMinDX && dy < SwipeMaxDY && elapsed < SwipeMaxDuration
}

// Gesture is what a finished touch turned out to be
type Gesture int

const (
	GestureNone Gesture = iota
	GestureDrop
	GestureSwipeSelect
	GestureCancel
)

type touchState struct {
	active bool
	member int64
	start  Point
	at     time.Time
}
