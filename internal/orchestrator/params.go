package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/datenollm/internal/history"
)

// ErrInvalidParams is returned when the params argument of Ask is not a JSON
// object of the expected shape.
var ErrInvalidParams = errors.New("invalid params")

// Params are the per-call options accepted by Ask.
type Params struct {
	History history.History `json:"history,omitempty"`
	Overrides
}

// ParseParams decodes params. Empty input yields zero Params. Null fields
// are treated as absent.
func ParseParams(params string) (Params, error) {
	var p Params
	if strings.TrimSpace(params) == "" {
		return p, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(params), &probe); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}

// Encode renders p as the params string accepted by Ask.
func (p Params) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
