package apitablev1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/box"
)

func getIndex(ctx context.Context) (*listIndexesItem, error) {

	s := GetServicer(ctx)
	w := box.GetResponse(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")
	indexName := box.GetUrlParameter(ctx, "indexName")

	table, err := s.GetTable(tableName)
	if err != nil {
		return nil, err
	}

	index, exists := table.Indexes[indexName]
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return nil, fmt.Errorf("index '%s' not found in table '%s'", indexName, tableName)
	}

	return &listIndexesItem{
		Name:    indexName,
		Type:    index.GetType(),
		Options: index.GetOptions(),
	}, nil
}
