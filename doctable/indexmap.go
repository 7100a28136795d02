package doctable

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
)

// IndexMap is a unique key/value index over a single field. Indexed values
// can be scalar strings or arrays of strings.
type IndexMap struct {
	Entries map[string]*Row
	RWmutex *sync.RWMutex
	Options *IndexMapOptions
}

// IndexMapOptions should have attributes like unique, multikey, background, etc...
type IndexMapOptions struct {
	Field  string `json:"field"`
	Sparse bool   `json:"sparse"`
}

func NewIndexMap(options *IndexMapOptions) *IndexMap {
	return &IndexMap{
		Entries: map[string]*Row{},
		RWmutex: &sync.RWMutex{},
		Options: options,
	}
}

func (i *IndexMap) AddRow(row *Row) error {

	field := i.Options.Field

	result := gjson.GetBytes(row.Payload, field)
	if !result.Exists() {
		if i.Options.Sparse {
			// Do not index
			return nil
		}
		return fmt.Errorf("field `%s` is indexed and mandatory", field)
	}

	values, err := indexableStrings(field, result)
	if err != nil {
		return err
	}

	mutex := i.RWmutex
	entries := i.Entries

	mutex.RLock()
	for _, value := range values {
		if _, exists := entries[value]; exists {
			mutex.RUnlock()
			return fmt.Errorf("index conflict: field '%s' with value '%s'", field, value)
		}
	}
	mutex.RUnlock()

	mutex.Lock()
	for _, value := range values {
		entries[value] = row
	}
	mutex.Unlock()

	return nil
}

func (i *IndexMap) RemoveRow(row *Row) error {

	result := gjson.GetBytes(row.Payload, i.Options.Field)
	if !result.Exists() {
		// Was not indexed
		return nil
	}

	values, err := indexableStrings(i.Options.Field, result)
	if err != nil {
		return err
	}

	i.RWmutex.Lock()
	for _, value := range values {
		delete(i.Entries, value)
	}
	i.RWmutex.Unlock()

	return nil
}

// indexableStrings flattens an indexed field value into the entry keys it
// occupies. Anything that is not a string or an array of strings is
// rejected.
func indexableStrings(field string, result gjson.Result) ([]string, error) {

	if result.Type == gjson.String {
		return []string{result.Str}, nil
	}

	if result.IsArray() {
		items := result.Array()
		values := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				return nil, fmt.Errorf("type not supported")
			}
			values = append(values, item.Str)
		}
		return values, nil
	}

	return nil, fmt.Errorf("type not supported")
}

type IndexMapTraverse struct {
	Value string `json:"value"`
}

func (i *IndexMap) Traverse(optionsData []byte, f func(row *Row) bool) {

	options := &IndexMapTraverse{}
	json.Unmarshal(optionsData, options) // todo: handle error

	i.RWmutex.RLock()
	row, ok := i.Entries[options.Value]
	i.RWmutex.RUnlock()
	if !ok {
		return
	}

	f(row)
}

func (i *IndexMap) GetType() string {
	return "map"
}

func (i *IndexMap) GetOptions() interface{} {
	return i.Options
}
