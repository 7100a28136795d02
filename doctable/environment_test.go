package doctable

import (
	"fmt"
	"os"
	"time"
)

// Environment runs f with a journal filename that is removed afterwards.
func Environment(f func(filename string)) {
	filename := fmt.Sprintf("temp-%v", time.Now().UnixNano())
	defer os.Remove(filename)

	f(filename)
}
