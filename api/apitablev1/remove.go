package apitablev1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/doctable"
)

// remove deletes every row matched by the query and streams the removed
// documents back. Matching rows are collected first so the traversal never
// iterates a table it is mutating.
func remove(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	s := GetServicer(ctx)
	tableName := box.GetUrlParameter(ctx, "tableName")
	table, err := s.GetTable(tableName)
	if err != nil {
		return err
	}

	rows := []*doctable.Row{}
	err = traverse(requestBody, table, func(row *doctable.Row) bool {
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return err
	}

	e := json.NewEncoder(w)
	for _, row := range rows {
		removed, err := table.Remove(row.Key)
		if err != nil {
			return err
		}
		if removed == nil {
			continue
		}
		e.Encode(documentEnvelope{
			Key:      removed.Key.String(),
			Document: removed.Payload,
		})
	}

	return nil
}
