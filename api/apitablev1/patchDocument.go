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

func patchDocument(ctx context.Context, r *http.Request) (*documentEnvelope, error) {

	s := GetServicer(ctx)
	w := box.GetResponse(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")
	documentKey := box.GetUrlParameter(ctx, "documentKey")

	key, err := uuid.Parse(documentKey)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, fmt.Errorf("invalid document key '%s'", documentKey)
	}

	table, err := s.GetTable(tableName)
	if err != nil {
		return nil, err
	}

	patch, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	row, err := table.Patch(key, json.RawMessage(patch))
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
