package apitablev1

import (
	"context"
	"os"

	"github.com/fulldump/box"
)

func size(ctx context.Context) (interface{}, error) {

	s := GetServicer(ctx)
	tableName := box.GetUrlParameter(ctx, "tableName")
	table, err := s.GetTable(tableName)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	result["count"] = table.Len()
	result["indexes"] = len(table.Indexes)

	info, err := os.Stat(table.Filename)
	if err == nil {
		result["disk"] = info.Size()
	}

	return result, nil
}
