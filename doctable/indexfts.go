package doctable

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// IndexFTS is an inverted index over a single text field. A query matches a
// row when every query token appears in the indexed field.
type IndexFTS struct {
	Index   map[string]map[*Row]struct{}
	RWmutex *sync.RWMutex
	Options *IndexFTSOptions
}

type IndexFTSOptions struct {
	Field string `json:"field"`
}

func NewIndexFTS(options *IndexFTSOptions) *IndexFTS {
	return &IndexFTS{
		Index:   map[string]map[*Row]struct{}{},
		RWmutex: &sync.RWMutex{},
		Options: options,
	}
}

// tokenize lowercases and splits by whitespace.
// TODO: strip punctuation
func (i *IndexFTS) tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func (i *IndexFTS) AddRow(row *Row) error {

	result := gjson.GetBytes(row.Payload, i.Options.Field)
	if result.Type != gjson.String {
		// Missing or non-text fields are just not indexed
		return nil
	}

	tokens := i.tokenize(result.Str)

	i.RWmutex.Lock()
	defer i.RWmutex.Unlock()

	for _, token := range tokens {
		if _, ok := i.Index[token]; !ok {
			i.Index[token] = map[*Row]struct{}{}
		}
		i.Index[token][row] = struct{}{}
	}

	return nil
}

func (i *IndexFTS) RemoveRow(row *Row) error {

	result := gjson.GetBytes(row.Payload, i.Options.Field)
	if result.Type != gjson.String {
		return nil
	}

	tokens := i.tokenize(result.Str)

	i.RWmutex.Lock()
	defer i.RWmutex.Unlock()

	for _, token := range tokens {
		if rows, ok := i.Index[token]; ok {
			delete(rows, row)
			if len(rows) == 0 {
				delete(i.Index, token)
			}
		}
	}

	return nil
}

type IndexFTSTraverse struct {
	Match string `json:"match"`
}

func (i *IndexFTS) Traverse(optionsData []byte, f func(row *Row) bool) {

	options := &IndexFTSTraverse{}
	json.Unmarshal(optionsData, options) // todo: handle error

	tokens := i.tokenize(options.Match)
	if len(tokens) == 0 {
		return
	}

	i.RWmutex.RLock()
	defer i.RWmutex.RUnlock()

	rows, ok := i.Index[tokens[0]]
	if !ok {
		return
	}

	for row := range rows {
		matchAll := true
		for _, token := range tokens[1:] {
			otherRows, ok := i.Index[token]
			if !ok {
				matchAll = false
				break
			}
			if _, exists := otherRows[row]; !exists {
				matchAll = false
				break
			}
		}

		if matchAll {
			if !f(row) {
				return
			}
		}
	}
}

func (i *IndexFTS) GetType() string {
	return "fts"
}

func (i *IndexFTS) GetOptions() interface{} {
	return i.Options
}
