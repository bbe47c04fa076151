// Package journal records ask, filter and like interactions in SQLite.
package journal

import "time"

// Operation identifies the kind of interaction.
type Operation string

const (
	OpAsk    Operation = "ask"
	OpFilter Operation = "filter"
	OpLike   Operation = "like"
)

// Entry is one journaled interaction.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Model     string    `json:"model,omitempty"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Fallback  bool      `json:"fallback"`
	Feedback  string    `json:"feedback,omitempty"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}
