package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/doctable"
	"github.com/fulldump/tabledb/service"
)

type createIndexRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func createIndex(ctx context.Context, r *http.Request) (*listIndexesItem, error) {

	s := GetServicer(ctx)
	w := box.GetResponse(ctx)

	tableName := box.GetUrlParameter(ctx, "tableName")
	table, err := s.GetTable(tableName)
	if err == service.ErrorTableNotFound {
		table, err = s.CreateTable(tableName)
	}
	if err != nil {
		return nil, err
	}

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	input := createIndexRequest{}
	err = json.Unmarshal(requestBody, &input)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return nil, fmt.Errorf("index name is required")
	}

	options, err := doctable.IndexOptions(input.Type)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, err
	}

	// index specific options travel in the same object
	err = json.Unmarshal(requestBody, options)
	if err != nil {
		return nil, err
	}

	err = table.CreateIndex(input.Name, options)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)

	return &listIndexesItem{
		Name:    input.Name,
		Type:    input.Type,
		Options: options,
	}, nil
}
