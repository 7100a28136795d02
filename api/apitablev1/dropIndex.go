package apitablev1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
)

func dropIndex(ctx context.Context, w http.ResponseWriter) error {

	s := GetServicer(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")
	indexName := box.GetUrlParameter(ctx, "indexName")

	table, err := s.GetTable(tableName)
	if err != nil {
		return err
	}

	err = table.DropIndex(indexName)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
