package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/llm"
)

// Assemble builds the message sequence sent to the chat model: the system
// prompt as an assistant message, then the history role for role, then the
// new user message. Turns with any other role are skipped. Nothing is
// truncated.
func Assemble(systemPrompt string, h history.History, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(h)+2)
	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: systemPrompt})
	for _, turn := range h {
		switch turn.Role {
		case history.RoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.Content})
		case history.RoleAssistant:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: turn.Content})
		}
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// FilterMessage embeds a filtering instruction and a JSON rendering of data
// into one user message.
func FilterMessage(instruction string, data any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("encoding filter data: %w", err)
	}

	var b strings.Builder
	b.WriteString("# User query\n")
	b.WriteString(instruction)
	b.WriteString("\n\n# Data\n```json\n")
	b.WriteString(strings.TrimRight(buf.String(), "\n"))
	b.WriteString("\n```\n")
	return b.String(), nil
}
