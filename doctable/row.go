package doctable

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Row is a live document: its table key plus the raw JSON payload. Rows are
// shared by pointer between the dense table and the secondary indexes, so a
// payload update is visible everywhere at once.
type Row struct {
	Key     uuid.UUID
	Payload json.RawMessage
}
