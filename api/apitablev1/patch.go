package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/doctable"
)

// patch applies a JSON merge patch to every row matched by the query and
// streams the patched documents back.
func patch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	input := struct {
		Patch json.RawMessage `json:"patch"`
	}{}
	err = json.Unmarshal(requestBody, &input)
	if err != nil {
		return err
	}

	if len(input.Patch) == 0 {
		box.GetResponse(ctx).WriteHeader(http.StatusBadRequest)
		return fmt.Errorf("patch attribute is required")
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
		patched, err := table.Patch(row.Key, input.Patch)
		if err != nil {
			return err
		}
		if patched == nil {
			continue
		}
		e.Encode(documentEnvelope{
			Key:      patched.Key.String(),
			Document: patched.Payload,
		})
	}

	return nil
}
