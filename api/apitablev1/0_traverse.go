package apitablev1

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/tabledb/doctable"
	"github.com/fulldump/tabledb/utils"
)

// traverse drives a query over a table. With an index name it walks the
// index (passing the raw input through so each index decodes its own
// traversal options), otherwise it falls back to a full scan. Filter, skip
// and limit apply in both cases.
func traverse(input []byte, tbl *doctable.DocTable, f func(row *doctable.Row) bool) error {

	params := &struct {
		Index string
	}{}
	err := json.Unmarshal(input, params)
	if err != nil {
		return err
	}

	if params.Index == "" {
		return traverseFullscan(input, tbl, f)
	}

	return traverseIndex(input, tbl, params.Index, f)
}

type traverseParams struct {
	Filter map[string]interface{}
	Skip   int64
	Limit  int64
}

func newTraverseParams(input []byte) (*traverseParams, error) {

	params := &traverseParams{
		Filter: map[string]interface{}{},
		Skip:   0,
		Limit:  1,
	}
	err := json.Unmarshal(input, params)
	if err != nil {
		return nil, err
	}

	return params, nil
}

// visitor wraps the row callback with filter, skip and limit bookkeeping.
func (p *traverseParams) visitor(f func(row *doctable.Row) bool) (func(row *doctable.Row) bool, *error) {

	hasFilter := len(p.Filter) > 0
	skip := p.Skip
	limit := p.Limit
	var matchErr error

	return func(row *doctable.Row) bool {

		if limit == 0 {
			return false
		}

		if hasFilter {
			rowData := map[string]interface{}{}
			json.Unmarshal(row.Payload, &rowData)

			match, err := connor.Match(p.Filter, rowData)
			if err != nil {
				matchErr = fmt.Errorf("match: %w", err)
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		limit--
		return f(row)
	}, &matchErr
}

func traverseFullscan(input []byte, tbl *doctable.DocTable, f func(row *doctable.Row) bool) error {

	params, err := newTraverseParams(input)
	if err != nil {
		return err
	}

	visit, matchErr := params.visitor(f)
	tbl.Traverse(visit)

	return *matchErr
}

func traverseIndex(input []byte, tbl *doctable.DocTable, name string, f func(row *doctable.Row) bool) error {

	if _, exists := tbl.Indexes[name]; !exists {
		return fmt.Errorf("index '%s' not found, available indexes [%s]",
			name, strings.Join(utils.GetKeys(tbl.Indexes), ", "))
	}

	params, err := newTraverseParams(input)
	if err != nil {
		return err
	}

	visit, matchErr := params.visitor(f)
	err = tbl.TraverseIndex(name, input, visit)
	if err != nil {
		return err
	}

	return *matchErr
}
