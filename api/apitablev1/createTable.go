package apitablev1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/tabledb/service"
)

type createTableRequest struct {
	Name string `json:"name"`
}

func createTable(ctx context.Context, w http.ResponseWriter, input *createTableRequest) (*TableResponse, error) {

	s := GetServicer(ctx)

	if input.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return nil, fmt.Errorf("table name is required")
	}

	table, err := s.CreateTable(input.Name)
	if err == service.ErrorTableAlreadyExists {
		w.WriteHeader(http.StatusConflict)
		return nil, err
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return &TableResponse{
		Name:  input.Name,
		Total: table.Len(),
	}, nil
}
