package apitablev1

import (
	"context"
	"encoding/json"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/utils"
)

type listIndexesItem struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Options interface{} `json:"options"`
}

// MarshalJSON flattens the typed options next to name and type, so a map
// index serializes as {"name":..., "type":"map", "field":..., "sparse":...}.
func (l *listIndexesItem) MarshalJSON() ([]byte, error) {

	result := map[string]interface{}{
		"name": l.Name,
		"type": l.Type,
	}
	utils.Remarshal(l.Options, &result)

	return json.Marshal(result)
}

func listIndexes(ctx context.Context) ([]*listIndexesItem, error) {

	s := GetServicer(ctx)
	tableName := box.GetUrlParameter(ctx, "tableName")
	table, err := s.GetTable(tableName)
	if err != nil {
		return nil, err
	}

	result := []*listIndexesItem{}
	for _, name := range utils.GetKeys(table.Indexes) {
		index := table.Indexes[name]
		result = append(result, &listIndexesItem{
			Name:    name,
			Type:    index.GetType(),
			Options: index.GetOptions(),
		})
	}

	return result, nil
}
