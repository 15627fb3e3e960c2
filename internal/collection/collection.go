// Package collection edits ordered lists of identified items (goals, achievements,
// challenges). Every operation returns a new slice and leaves its input untouched.
package collection

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrDuplicateID     = errors.New("duplicate item id")
	ErrMissingID       = errors.New("item id is required")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Item is anything with a stable identifier.
type Item interface {
	ItemID() string
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf[T Item](list []T, id string) int {
	for i, it := range list {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// Append adds item at the end of list.
func Append[T Item](list []T, item T) ([]T, error) {
	return Insert(list, len(list), item)
}

// Insert places item at index, shifting later items right. index may equal len(list).
func Insert[T Item](list []T, index int, item T) ([]T, error) {
	if item.ItemID() == "" {
		return nil, ErrMissingID
	}
	if index < 0 || index > len(list) {
		return nil, fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, len(list))
	}
	if IndexOf(list, item.ItemID()) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, item.ItemID())
	}

	out := make([]T, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, item)
	out = append(out, list[index:]...)
	return out, nil
}

// RemoveByID drops the item with the given id.
func RemoveByID[T Item](list []T, id string) ([]T, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	return out, nil
}

// UpdateByID replaces the item with the given id by fn(item). The updated item keeps its
// position; changing its id to one already present is rejected.
func UpdateByID[T Item](list []T, id string, fn func(T) T) ([]T, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := fn(list[i])
	newID := updated.ItemID()
	if newID == "" {
		return nil, ErrMissingID
	}
	if newID != id && IndexOf(list, newID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, newID)
	}

	out := Clone(list)
	out[i] = updated
	return out, nil
}

// MoveTo moves the item with the given id so that it ends up at newIndex.
func MoveTo[T Item](list []T, id string, newIndex int) ([]T, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return MoveItem(list, i, newIndex)
}

// MoveItem moves the element at from to position to. Both must be valid indices.
func MoveItem[T any](list []T, from, to int) ([]T, error) {
	n := len(list)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("%w: from %d, length %d", ErrIndexOutOfRange, from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("%w: to %d, length %d", ErrIndexOutOfRange, to, n)
	}

	out := Clone(list)
	if from == to {
		return out, nil
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out, nil
}

// IDs lists item ids in order.
func IDs[T Item](list []T) []string {
	ids := make([]string, len(list))
	for i, it := range list {
		ids[i] = it.ItemID()
	}
	return ids
}

// Clone returns a shallow copy of list. A nil list clones to an empty one.
func Clone[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}
