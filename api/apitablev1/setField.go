package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	"github.com/google/uuid"
)

// setField overwrites a single field with the JSON value sent as body and
// returns the updated document.
func setField(ctx context.Context, r *http.Request) (*documentEnvelope, error) {

	s := GetServicer(ctx)
	w := box.GetResponse(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")
	documentKey := box.GetUrlParameter(ctx, "documentKey")
	fieldPath := box.GetUrlParameter(ctx, "fieldPath")

	key, err := uuid.Parse(documentKey)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, fmt.Errorf("invalid document key '%s'", documentKey)
	}

	table, err := s.GetTable(tableName)
	if err != nil {
		return nil, err
	}

	value, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	if !json.Valid(value) {
		w.WriteHeader(http.StatusBadRequest)
		return nil, fmt.Errorf("value must be valid JSON")
	}

	row, err := table.SetField(key, fieldPath, json.RawMessage(value))
	if err != nil {
		return nil, err
	}
	if row == nil {
		w.WriteHeader(http.StatusNotFound)
		return nil, fmt.Errorf("document '%s' not found", documentKey)
	}

	return &documentEnvelope{
		Key:      row.Key.String(),
		Document: row.Payload,
	}, nil
}
