package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fulldump/box"
	"github.com/google/uuid"
)

// getField returns the raw JSON value of a single field, addressed by a
// dot separated path.
func getField(ctx context.Context) (json.RawMessage, error) {

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

	result, exists := table.GetField(key, fieldPath)
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return nil, fmt.Errorf("field '%s' not found in document '%s'", fieldPath, documentKey)
	}

	return json.RawMessage(result.Raw), nil
}
