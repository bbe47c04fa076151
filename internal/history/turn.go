// Package history holds the conversational log exchanged with the query
// server and its JSON file representation.
package history

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata keys written by the feedback flow.
const (
	KeyLikeDislike = "like_dislike"
	KeyIndex       = "index"
	KeyTimestamp   = "timestamp"
)

// Feedback is the like/dislike mark stored in assistant metadata.
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "Like"
	FeedbackDislike Feedback = "Dislike"
)

// Turn is one message of a conversation. Metadata and Options are nullable;
// Options is carried through verbatim.
type Turn struct {
	Role     Role            `json:"role"`
	Metadata map[string]any  `json:"metadata"`
	Content  string          `json:"content"`
	Options  json.RawMessage `json:"options"`
}

// UnmarshalJSON accepts a non-string content, such as an assistant answer
// stored as a decoded object, and keeps it as its compact JSON text.
func (t *Turn) UnmarshalJSON(data []byte) error {
	type plain Turn
	var raw struct {
		plain
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Turn(raw.plain)
	t.Content = contentText(raw.Content)
	return nil
}

func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Feedback returns the like_dislike mark of the turn when it is a string.
func (t Turn) Feedback() Feedback {
	s, _ := t.Metadata[KeyLikeDislike].(string)
	return Feedback(s)
}

// Rated reports whether like_dislike is set to a non-empty value. Null,
// false, zero, "" and empty collections do not count.
func (t Turn) Rated() bool {
	v, ok := t.Metadata[KeyLikeDislike]
	if !ok {
		return false
	}
	switch m := v.(type) {
	case nil:
		return false
	case bool:
		return m
	case string:
		return m != ""
	case float64:
		return m != 0
	case int:
		return m != 0
	case json.Number:
		f, err := m.Float64()
		return err != nil || f != 0
	case map[string]any:
		return len(m) > 0
	case []any:
		return len(m) > 0
	default:
		return true
	}
}

// History is an ordered conversation; the last element is the most recent turn.
type History []Turn

// UserTurn builds a user turn with null metadata and options.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn with null metadata and options.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Append returns a copy of h with the user message and the assistant
// response appended.
func (h History) Append(user, assistant string) History {
	out := make(History, 0, len(h)+2)
	out = append(out, h...)
	return append(out, UserTurn(user), AssistantTurn(assistant))
}

// MarkLast returns a copy of h whose last turn carries the given feedback.
// Like and Dislike record the mark, the history length as index and the
// time; FeedbackNone resets the metadata to an empty object.
func (h History) MarkLast(feedback Feedback, now time.Time) History {
	if len(h) == 0 {
		return h
	}
	out := make(History, len(h))
	copy(out, h)

	last := out[len(out)-1]
	meta := make(map[string]any, len(last.Metadata)+3)
	if feedback != FeedbackNone {
		for k, v := range last.Metadata {
			meta[k] = v
		}
		meta[KeyLikeDislike] = string(feedback)
		meta[KeyIndex] = len(out)
		meta[KeyTimestamp] = now.Format("2006-01-02 15:04:05.000000")
	}
	last.Metadata = meta
	out[len(out)-1] = last
	return out
}

// ToContext reduces a history to the user/assistant pairs whose assistant
// turn is Rated. Each such assistant is paired with the most recently
// seen user turn; an assistant with feedback but no earlier user turn is
// dropped. Order is preserved.
func ToContext(h History) History {
	context := History{}
	var (
		user    Turn
		hasUser bool
	)
	for _, t := range h {
		switch t.Role {
		case RoleUser:
			user, hasUser = t, true
		case RoleAssistant:
			if t.Rated() && hasUser {
				context = append(context, user, t)
			}
		}
	}
	return context
}
