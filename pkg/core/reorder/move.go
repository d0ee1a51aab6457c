// Package reorder implements drag and drop reordering of collection
// members and the persistence of the resulting display order.
package reorder

import (
	"errors"
	"fmt"
)

// ErrUnknownMember is returned when an id is not part of the member list.
var ErrUnknownMember = errors.New("unknown collection member")

// Side is where the dragged member lands relative to the drop target
type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == After {
		return "after"
	}
	return "before"
}

// ParseSide accepts "before" and "after".
func ParseSide(s string) (Side, error) {
	switch s {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	}
	return Before, fmt.Errorf("invalid drop position %q", s)
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Move returns a copy of ids with source moved next to target. The input
// is not modified.
func Move(ids []int64, source, target int64, side Side) ([]int64, error) {
	from := indexOf(ids, source)
	if from < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMember, source)
	}
	to := indexOf(ids, target)
	if to < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMember, target)
	}

	out := make([]int64, 0, len(ids))
	if source == target {
		return append(out, ids...), nil
	}

	insert := to
	if side == After {
		insert++
	}
	// Removing the source shifts everything after it one slot left
	if from < insert {
		insert--
	}

	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:insert], append([]int64{source}, out[insert:]...)...)
	return out, nil
}

// IsPermutation reports whether order holds exactly the ids of current.
func IsPermutation(current, order []int64) bool {
	if len(current) != len(order) {
		return false
	}
	seen := make(map[int64]int, len(current))
	for _, id := range current {
		seen[id]++
	}
	for _, id := range order {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
