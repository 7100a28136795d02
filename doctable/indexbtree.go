package doctable

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/btree"
	"github.com/tidwall/gjson"
)

// IndexBtree is an ordered index over one or more fields. A field prefixed
// with "-" sorts in reverse.
type IndexBtree struct {
	Btree   *btree.BTreeG[*RowOrdered]
	Options *IndexBTreeOptions
}

type IndexBTreeOptions struct {
	Fields []string `json:"fields"`
	Sparse bool     `json:"sparse"`
	Unique bool     `json:"unique"`
}

// RowOrdered carries the extracted field values next to the row so the tree
// does not reparse payloads on every comparison.
type RowOrdered struct {
	*Row
	Values []interface{}
}

func NewIndexBTree(options *IndexBTreeOptions) *IndexBtree {

	index := btree.NewG(32, func(a, b *RowOrdered) bool {

		for i, valA := range a.Values {
			valB := b.Values[i]
			if reflect.DeepEqual(valA, valB) {
				continue
			}

			field := options.Fields[i]
			reverse := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")

			switch valA := valA.(type) {
			case string:
				valB, ok := valB.(string)
				if !ok {
					panic("Type B should be string for field " + field)
				}
				if reverse {
					return !(valA < valB)
				}
				return valA < valB

			case float64:
				valB, ok := valB.(float64)
				if !ok {
					panic("Type B should be float64 for field " + field)
				}
				if reverse {
					return !(valA < valB)
				}
				return valA < valB

				// todo: case bool
			default:
				panic("Type A not supported, field " + field)
			}
		}

		return false
	})

	return &IndexBtree{
		Btree:   index,
		Options: options,
	}
}

func (b *IndexBtree) fieldValues(row *Row) ([]interface{}, bool, error) {

	values := make([]interface{}, 0, len(b.Options.Fields))
	for _, field := range b.Options.Fields {
		field = strings.TrimPrefix(field, "-")
		result := gjson.GetBytes(row.Payload, field)
		if !result.Exists() {
			if b.Options.Sparse {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("field '%s' not defined", field)
		}
		values = append(values, result.Value())
	}

	return values, true, nil
}

func (b *IndexBtree) AddRow(row *Row) error {

	values, indexable, err := b.fieldValues(row)
	if err != nil {
		return err
	}
	if !indexable {
		return nil
	}

	if b.Btree.Has(&RowOrdered{Values: values}) {
		errKey := ""
		for i, field := range b.Options.Fields {
			pair := fmt.Sprint(field, ":", values[i])
			if errKey != "" {
				errKey += "," + pair
			} else {
				errKey = pair
			}
		}
		return fmt.Errorf("key (%s) already exists", errKey)
	}

	b.Btree.ReplaceOrInsert(&RowOrdered{
		Row:    row,
		Values: values,
	})

	return nil
}

func (b *IndexBtree) RemoveRow(row *Row) error {

	values, indexable, err := b.fieldValues(row)
	if err != nil {
		return err
	}
	if !indexable {
		return nil
	}

	b.Btree.Delete(&RowOrdered{
		Row:    row,
		Values: values,
	})

	return nil
}

type IndexBtreeTraverse struct {
	Reverse bool                   `json:"reverse"`
	From    map[string]interface{} `json:"from"`
	To      map[string]interface{} `json:"to"`
}

func (b *IndexBtree) Traverse(optionsData []byte, f func(*Row) bool) {

	options := &IndexBtreeTraverse{}
	json.Unmarshal(optionsData, options) // todo: handle error

	iterator := func(r *RowOrdered) bool {
		return f(r.Row)
	}

	hasFrom := len(options.From) > 0
	hasTo := len(options.To) > 0

	pivotFrom := &RowOrdered{}
	if hasFrom {
		for _, field := range b.Options.Fields {
			field = strings.TrimPrefix(field, "-")
			pivotFrom.Values = append(pivotFrom.Values, options.From[field])
		}
	}

	pivotTo := &RowOrdered{}
	if hasTo {
		for _, field := range b.Options.Fields {
			field = strings.TrimPrefix(field, "-")
			pivotTo.Values = append(pivotTo.Values, options.To[field])
		}
	}

	if !hasFrom && !hasTo {
		if options.Reverse {
			b.Btree.Descend(iterator)
		} else {
			b.Btree.Ascend(iterator)
		}
	} else if hasFrom && !hasTo {
		if options.Reverse {
			b.Btree.DescendGreaterThan(pivotFrom, iterator)
		} else {
			b.Btree.AscendGreaterOrEqual(pivotFrom, iterator)
		}
	} else if !hasFrom && hasTo {
		if options.Reverse {
			b.Btree.DescendLessOrEqual(pivotTo, iterator)
		} else {
			b.Btree.AscendLessThan(pivotTo, iterator)
		}
	} else {
		if options.Reverse {
			b.Btree.DescendRange(pivotTo, pivotFrom, iterator)
		} else {
			b.Btree.AscendRange(pivotFrom, pivotTo, iterator)
		}
	}
}

func (b *IndexBtree) GetType() string {
	return "btree"
}

func (b *IndexBtree) GetOptions() interface{} {
	return b.Options
}
