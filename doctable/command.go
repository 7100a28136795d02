package doctable

import (
	"bytes"
	"encoding/json"
)

// Command is one journal entry. The journal is a stream of these, encoded
// as JSON values, one per line.
type Command struct {
	Name      string          `json:"name"`
	Uuid      string          `json:"uuid"`
	Timestamp int64           `json:"timestamp"`
	StartByte int64           `json:"start_byte"`
	Payload   json.RawMessage `json:"payload"`

	serialized chan *bytes.Buffer `json:"-"`
}

// Document commands address rows by key, never by position: positions move
// on every removal, keys do not, so replay does not depend on ordering
// details of the dense storage.

type insertCommand struct {
	Key      string          `json:"key"`
	Document json.RawMessage `json:"document"`
}

type removeCommand struct {
	Key string `json:"key"`
}

type patchCommand struct {
	Key  string          `json:"key"`
	Diff json.RawMessage `json:"diff"`
}

type setFieldCommand struct {
	Key   string          `json:"key"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

type CreateIndexCommand struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Options interface{} `json:"options"`
}

type DropIndexCommand struct {
	Name string `json:"name"`
}
