// Package response turns raw model output into the text handed back to
// clients: fence stripping, validation and the shared fallback payload.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Filter narrows a Dateno query, e.g. {"name": "source.countries.name", "value": "Kenya"}.
type Filter struct {
	Name  string `json:"name" jsonschema:"required"`
	Value string `json:"value" jsonschema:"required"`
}

// QueryRequest is one search query proposed by the model.
type QueryRequest struct {
	Query   string   `json:"query" jsonschema:"required"`
	Filters []Filter `json:"filters"`
}

// QueryList is the structured payload produced for a user turn. Question is
// either a restatement of the request or a clarifying question.
type QueryList struct {
	Question string         `json:"question"`
	Queries  []QueryRequest `json:"queries"`
}

// Parse decodes orchestrator output into a QueryList.
func Parse(text string) (QueryList, error) {
	var ql QueryList
	if err := json.Unmarshal([]byte(text), &ql); err != nil {
		return QueryList{}, fmt.Errorf("parsing query list: %w", err)
	}
	return ql.canonical(), nil
}

// canonical replaces nil slices so they encode as [] rather than null.
func (ql QueryList) canonical() QueryList {
	if ql.Queries == nil {
		ql.Queries = []QueryRequest{}
	}
	for i := range ql.Queries {
		if ql.Queries[i].Filters == nil {
			ql.Queries[i].Filters = []Filter{}
		}
	}
	return ql
}

// Encode renders ql as compact JSON without HTML escaping.
func (ql QueryList) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ql.canonical()); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
