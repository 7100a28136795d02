package doctable

import (
	"testing"

	"github.com/fulldump/biff"
)

func Test_IndexFTS_HappyPath(t *testing.T) {

	index := NewIndexFTS(&IndexFTSOptions{Field: "title"})

	kernel := &Row{Payload: []byte(`{"title": "Kernel panic on boot"}`)}
	disk := &Row{Payload: []byte(`{"title": "Disk full panic"}`)}
	network := &Row{Payload: []byte(`{"title": "Network is unreachable"}`)}

	biff.AssertNil(index.AddRow(kernel))
	biff.AssertNil(index.AddRow(disk))
	biff.AssertNil(index.AddRow(network))

	// All words must match, case insensitive
	matches := []*Row{}
	index.Traverse([]byte(`{"match": "PANIC kernel"}`), func(row *Row) bool {
		matches = append(matches, row)
		return true
	})

	biff.AssertEqual(len(matches), 1)
	biff.AssertEqual(matches[0], kernel)
}

func Test_IndexFTS_NoMatch(t *testing.T) {

	index := NewIndexFTS(&IndexFTSOptions{Field: "title"})

	index.AddRow(&Row{Payload: []byte(`{"title": "Kernel panic on boot"}`)})

	matches := 0
	index.Traverse([]byte(`{"match": "panic reboot"}`), func(row *Row) bool {
		matches++
		return true
	})

	biff.AssertEqual(matches, 0)
}

func Test_IndexFTS_RemoveRow(t *testing.T) {

	index := NewIndexFTS(&IndexFTSOptions{Field: "title"})

	row := &Row{Payload: []byte(`{"title": "Kernel panic on boot"}`)}
	index.AddRow(row)
	index.RemoveRow(row)

	matches := 0
	index.Traverse([]byte(`{"match": "kernel"}`), func(row *Row) bool {
		matches++
		return true
	})

	biff.AssertEqual(matches, 0)
}

func Test_IndexFTS_NonStringField(t *testing.T) {

	index := NewIndexFTS(&IndexFTSOptions{Field: "title"})

	// Rows without a text value for the field are simply not indexed
	err := index.AddRow(&Row{Payload: []byte(`{"title": 42}`)})

	biff.AssertNil(err)
}
