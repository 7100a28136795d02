package doctable

import (
	"encoding/json"
	"testing"

	"github.com/fulldump/biff"
)

type JSON map[string]interface{}

func Test_IndexBTree_HappyPath(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
		Sparse: false,
		Unique: true,
	})

	n := 4
	for i := 0; i < n; i++ {
		data, _ := json.Marshal(JSON{
			"id": float64(i),
		})
		index.AddRow(&Row{
			Payload: data,
		})
	}

	{
		expectedPayloads := []string{
			`{"id":0}`, `{"id":1}`, `{"id":2}`, `{"id":3}`,
		}
		payloads := []string{}
		index.Traverse([]byte(`{}`), func(row *Row) bool {
			payloads = append(payloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(payloads, expectedPayloads)
	}

	{
		expectedReversedPayloads := []string{
			`{"id":3}`, `{"id":2}`, `{"id":1}`, `{"id":0}`,
		}
		reversedPayloads := []string{}
		index.Traverse([]byte(`{"reverse":true}`), func(row *Row) bool {
			reversedPayloads = append(reversedPayloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(reversedPayloads, expectedReversedPayloads)
	}

}

func Test_IndexBTree_Range(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
	})

	n := 10
	for i := 0; i < n; i++ {
		data, _ := json.Marshal(JSON{
			"id": float64(i),
		})
		index.AddRow(&Row{
			Payload: data,
		})
	}

	{
		// From is inclusive
		payloads := []string{}
		index.Traverse([]byte(`{"from":{"id":7}}`), func(row *Row) bool {
			payloads = append(payloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(payloads, []string{`{"id":7}`, `{"id":8}`, `{"id":9}`})
	}

	{
		// To is exclusive
		payloads := []string{}
		index.Traverse([]byte(`{"to":{"id":3}}`), func(row *Row) bool {
			payloads = append(payloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(payloads, []string{`{"id":0}`, `{"id":1}`, `{"id":2}`})
	}

	{
		payloads := []string{}
		index.Traverse([]byte(`{"from":{"id":4},"to":{"id":6}}`), func(row *Row) bool {
			payloads = append(payloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(payloads, []string{`{"id":4}`, `{"id":5}`})
	}

}

func Test_IndexBTree_ReverseField(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"-timestamp"},
	})

	for _, timestamp := range []float64{100, 300, 200} {
		data, _ := json.Marshal(JSON{
			"timestamp": timestamp,
		})
		index.AddRow(&Row{
			Payload: data,
		})
	}

	payloads := []string{}
	index.Traverse([]byte(`{}`), func(row *Row) bool {
		payloads = append(payloads, string(row.Payload))
		return true
	})
	biff.AssertEqual(payloads, []string{`{"timestamp":300}`, `{"timestamp":200}`, `{"timestamp":100}`})
}

func Test_IndexBTree_Conflict(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
		Unique: true,
	})

	index.AddRow(&Row{Payload: []byte(`{"id":1, "name":"Pablo"}`)})
	err := index.AddRow(&Row{Payload: []byte(`{"id":1, "name":"Sara"}`)})

	biff.AssertNotNil(err)
	biff.AssertEqual(err.Error(), "key (id:1) already exists")
}

func Test_IndexBTree_Sparse(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
		Sparse: true,
	})

	err := index.AddRow(&Row{Payload: []byte(`{"name":"Pablo"}`)})

	biff.AssertNil(err)
	biff.AssertEqual(index.Btree.Len(), 0)
}

func Test_IndexBTree_RemoveRow(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
	})

	row := &Row{Payload: []byte(`{"id":1}`)}
	index.AddRow(row)
	index.RemoveRow(row)

	biff.AssertEqual(index.Btree.Len(), 0)
}
