package apitablev1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/service"
)

func getTable(ctx context.Context) (*TableResponse, error) {

	s := GetServicer(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")

	table, err := s.GetTable(tableName)
	if err == service.ErrorTableNotFound {
		box.GetResponse(ctx).WriteHeader(http.StatusNotFound)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return &TableResponse{
		Name:    tableName,
		Total:   table.Len(),
		Indexes: len(table.Indexes),
	}, nil
}
