package doctable

import (
	"fmt"
	"testing"

	"github.com/fulldump/biff"
)

// createPayload builds a sample JSON document with the given field.
func createPayload(key, field string) []byte {
	return []byte(fmt.Sprintf(`{"%s": "%s"}`, field, key))
}

func Test_IndexMap_HappyPath(t *testing.T) {

	index := NewIndexMap(&IndexMapOptions{Field: "email"})

	pablo := &Row{Payload: []byte(`{"email": "pablo@email.com"}`)}
	sara := &Row{Payload: []byte(`{"email": "sara@email.com"}`)}

	biff.AssertNil(index.AddRow(pablo))
	biff.AssertNil(index.AddRow(sara))

	visited := []*Row{}
	index.Traverse([]byte(`{"value": "sara@email.com"}`), func(row *Row) bool {
		visited = append(visited, row)
		return true
	})

	biff.AssertEqual(len(visited), 1)
	biff.AssertEqual(visited[0], sara)
}

func Test_IndexMap_MultiValue(t *testing.T) {

	index := NewIndexMap(&IndexMapOptions{Field: "email"})

	pablo := &Row{Payload: []byte(`{"email": ["pablo@email.com", "p18@yahoo.com"]}`)}
	biff.AssertNil(index.AddRow(pablo))

	found := false
	index.Traverse([]byte(`{"value": "p18@yahoo.com"}`), func(row *Row) bool {
		found = true
		return true
	})
	biff.AssertTrue(found)

	biff.AssertNil(index.RemoveRow(pablo))
	biff.AssertEqual(len(index.Entries), 0)
}

func Test_IndexMap_Conflict(t *testing.T) {

	index := NewIndexMap(&IndexMapOptions{Field: "id"})

	index.AddRow(&Row{Payload: []byte(`{"id": "1"}`)})
	err := index.AddRow(&Row{Payload: []byte(`{"id": "1"}`)})

	biff.AssertNotNil(err)
	biff.AssertEqual(err.Error(), "index conflict: field 'id' with value '1'")
}

func Test_IndexMap_UnsupportedType(t *testing.T) {

	index := NewIndexMap(&IndexMapOptions{Field: "id"})

	err := index.AddRow(&Row{Payload: []byte(`{"id": 33}`)})

	biff.AssertNotNil(err)
	biff.AssertEqual(err.Error(), "type not supported")
}

func BenchmarkIndexMap_AddRow(b *testing.B) {
	options := &IndexMapOptions{Field: "key", Sparse: false}
	index := NewIndexMap(options)

	payloads := make([][]byte, b.N)
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i)
		payloads[i] = createPayload(key, options.Field)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		row := &Row{Payload: payloads[i]}
		if err := index.AddRow(row); err != nil {
			b.Fatalf("AddRow error: %v", err)
		}
	}
}

func BenchmarkIndexMap_RemoveRow(b *testing.B) {
	options := &IndexMapOptions{Field: "key", Sparse: false}
	index := NewIndexMap(options)

	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i)
		row := &Row{Payload: createPayload(key, options.Field)}
		if err := index.AddRow(row); err != nil {
			b.Fatalf("AddRow error: %v", err)
		}
	}

	payloads := make([][]byte, b.N)
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i)
		payloads[i] = createPayload(key, options.Field)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		row := &Row{Payload: payloads[i]}
		if err := index.RemoveRow(row); err != nil {
			b.Fatalf("RemoveRow error: %v", err)
		}
	}
}

func BenchmarkIndexMap_Traverse(b *testing.B) {
	options := &IndexMapOptions{Field: "key", Sparse: false}
	index := NewIndexMap(options)

	numRows := 10000
	for i := 0; i < numRows; i++ {
		key := fmt.Sprintf("key-%d", i)
		row := &Row{Payload: createPayload(key, options.Field)}
		if err := index.AddRow(row); err != nil {
			b.Fatalf("AddRow error: %v", err)
		}
	}

	traverseOptions := []byte(`{"value": "key-0"}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		index.Traverse(traverseOptions, func(row *Row) bool {
			return true
		})
	}
}
