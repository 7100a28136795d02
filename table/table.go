// Package table provides a dense in-memory table: values are packed in a
// contiguous array for cache-linear traversal and addressed by an opaque
// 128-bit key with O(1) lookup, insertion and removal.
//
// The table is not safe for concurrent use. Callers that share a table
// across goroutines must serialize access themselves, the same way they
// would with a plain map.
package table

import (
	"errors"

	"github.com/google/uuid"
)

const defaultCapacity = 32

// ErrDuplicateKey is returned by InsertWithKey when the key is already live.
var ErrDuplicateKey = errors.New("duplicate key")

// Table keeps three structures in lock-step: a dense value array, a key
// array aligned position by position with the values, and an index from
// key to current position. Removal compacts the arrays by moving the last
// record into the hole, so positions are unstable but keys are not.
type Table[T any] struct {
	index  map[uuid.UUID]int
	keys   []uuid.UUID
	values []T
}

func New[T any]() *Table[T] {
	return NewWithCapacity[T](defaultCapacity)
}

func NewWithCapacity[T any](capacity int) *Table[T] {
	return &Table[T]{
		index:  make(map[uuid.UUID]int, capacity),
		keys:   make([]uuid.UUID, 0, capacity),
		values: make([]T, 0, capacity),
	}
}

// Insert stores value under a freshly generated key and returns the key.
func (t *Table[T]) Insert(value T) uuid.UUID {
	key := t.NewKey()
	t.index[key] = len(t.values)
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
	return key
}

// InsertWithKey stores value under a caller-supplied key. If the key is
// already live the table is left untouched and ErrDuplicateKey is returned.
func (t *Table[T]) InsertWithKey(key uuid.UUID, value T) error {
	if _, exists := t.index[key]; exists {
		return ErrDuplicateKey
	}
	t.index[key] = len(t.values)
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
	return nil
}

// Get returns a copy of the value stored under key. A missing key is a
// normal outcome, not an error.
func (t *Table[T]) Get(key uuid.UUID) (T, bool) {
	i, exists := t.index[key]
	if !exists {
		var zero T
		return zero, false
	}
	return t.values[i], true
}

// Ref returns a pointer to the value stored under key, for modification in
// place. The pointer is valid only until the next insert or removal.
func (t *Table[T]) Ref(key uuid.UUID) (*T, bool) {
	i, exists := t.index[key]
	if !exists {
		return nil, false
	}
	return &t.values[i], true
}

func (t *Table[T]) Has(key uuid.UUID) bool {
	_, exists := t.index[key]
	return exists
}

// Remove deletes the record stored under key and returns its value. The
// last record takes over the freed position, so removal is O(1) and only
// one index entry needs rewriting. Iteration order is not preserved.
func (t *Table[T]) Remove(key uuid.UUID) (T, bool) {
	i, exists := t.index[key]
	if !exists {
		var zero T
		return zero, false
	}

	value := t.values[i]

	last := len(t.values) - 1
	if i != last {
		t.values[i] = t.values[last]
		t.keys[i] = t.keys[last]
		t.index[t.keys[i]] = i
	}

	var zero T
	t.values[last] = zero // do not retain the duplicated tail
	t.values = t.values[:last]
	t.keys = t.keys[:last]
	delete(t.index, key)

	return value, true
}

// Traverse calls f for every record in current physical order, which is
// insertion order only until the first removal. Returning false stops the
// traversal. The value pointer may be written through, but the table must
// not be structurally modified while a traversal is running.
func (t *Table[T]) Traverse(f func(key uuid.UUID, value *T) bool) {
	for i := range t.values {
		if !f(t.keys[i], &t.values[i]) {
			break
		}
	}
}

// Keys returns a copy of the live key set, in current physical order.
func (t *Table[T]) Keys() []uuid.UUID {
	keys := make([]uuid.UUID, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Values returns the backing value array. It is valid until the next
// insert or removal and writes through it are visible to the table.
func (t *Table[T]) Values() []T {
	return t.values
}

func (t *Table[T]) Len() int {
	return len(t.values)
}

func (t *Table[T]) IsEmpty() bool {
	return len(t.values) == 0
}

// Clear drops all records. Previously issued keys simply become absent.
func (t *Table[T]) Clear() {
	clear(t.index)
	clear(t.values)
	t.values = t.values[:0]
	t.keys = t.keys[:0]
}
