package apitablev1

import (
	"encoding/json"
)

// documentEnvelope is the wire form of a row: keys are external to the
// document so they travel next to it, never inside.
type documentEnvelope struct {
	Key      string          `json:"key"`
	Document json.RawMessage `json:"document"`
}
