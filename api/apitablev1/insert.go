package apitablev1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	"github.com/google/uuid"

	"github.com/fulldump/tabledb/doctable"
	"github.com/fulldump/tabledb/service"
)

// insert decodes a stream of JSON documents from the request body and
// inserts them one by one, echoing each stored row as an envelope line so
// the caller learns the generated keys. A document may bring its own key
// with the envelope form {"key": ..., "document": ...}.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	s := GetServicer(ctx)
	tableName := box.GetUrlParameter(ctx, "tableName")
	table, err := s.GetTable(tableName)
	if err == service.ErrorTableNotFound {
		table, err = s.CreateTable(tableName)
	}
	if err != nil {
		return err
	}

	jsonReader := json.NewDecoder(r.Body)
	jsonWriter := json.NewEncoder(w)

	for i := 0; true; i++ {
		item := json.RawMessage{}
		err := jsonReader.Decode(&item)
		if err == io.EOF {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err == nil && (len(item) == 0 || item[0] != '{') {
			err = fmt.Errorf("document must be a JSON object")
		}
		if err != nil {
			if i == 0 {
				w.WriteHeader(http.StatusBadRequest)
			}
			return err
		}

		row, err := insertOne(table, item)
		if err != nil {
			if i == 0 {
				w.WriteHeader(http.StatusConflict)
			}
			return err
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		jsonWriter.Encode(documentEnvelope{
			Key:      row.Key.String(),
			Document: row.Payload,
		})
	}

	return nil
}

// insertOne tells envelopes apart from plain documents: an object carrying
// both a string "key" and a "document" member is an envelope, anything else
// is stored as is under a fresh key.
func insertOne(table *doctable.DocTable, item json.RawMessage) (*doctable.Row, error) {

	envelope := struct {
		Key      string          `json:"key"`
		Document json.RawMessage `json:"document"`
	}{}
	json.Unmarshal(item, &envelope)

	if envelope.Key == "" || envelope.Document == nil {
		return table.Insert(item)
	}

	key, err := uuid.Parse(envelope.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key '%s': %s", envelope.Key, err.Error())
	}

	return table.InsertWithKey(key, envelope.Document)
}
