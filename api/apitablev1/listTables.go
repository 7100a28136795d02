package apitablev1

import (
	"context"

	"github.com/fulldump/tabledb/utils"
)

func listTables(ctx context.Context) ([]*TableResponse, error) {

	s := GetServicer(ctx)

	tables := s.ListTables()

	result := []*TableResponse{}
	for _, name := range utils.GetKeys(tables) {
		table := tables[name]
		result = append(result, &TableResponse{
			Name:    name,
			Total:   table.Len(),
			Indexes: len(table.Indexes),
		})
	}

	return result, nil
}
