package apitablev1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/doctable"
)

func find(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

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

	return traverse(requestBody, table, writeRow(w))
}

func writeRow(w http.ResponseWriter) func(row *doctable.Row) bool {
	e := json.NewEncoder(w)
	return func(row *doctable.Row) bool {
		e.Encode(documentEnvelope{
			Key:      row.Key.String(),
			Document: row.Payload,
		})
		return true
	}
}
