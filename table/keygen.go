package table

import (
	"github.com/google/uuid"
)

// newRandomKey produces candidate keys. It is a variable to allow stubbing
// in tests.
var newRandomKey = uuid.New

// NewKey returns a random key that is not currently live in the table.
// A collision with a live key is vanishingly rare but possible, so the
// candidate is checked against the index and resampled until free.
func (t *Table[T]) NewKey() uuid.UUID {
	for {
		key := newRandomKey()
		if _, exists := t.index[key]; !exists {
			return key
		}
	}
}
