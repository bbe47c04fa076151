// Package prompt builds the conversations sent to the chat model and loads
// the system prompt.
package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Placeholders recognised in prompt templates.
const (
	PlaceholderDate     = "{datetime}"
	PlaceholderYear     = "{year}"
	PlaceholderDateTime = "{datetime_full}"
)

// Expand fills the date placeholders of a prompt template with now in GMT.
func Expand(template string, now time.Time) string {
	now = now.UTC()
	r := strings.NewReplacer(
		PlaceholderDateTime, now.Format("2006-01-02 15:04:05")+" GMT",
		PlaceholderDate, now.Format("2006-01-02"),
		PlaceholderYear, now.Format("2006"),
	)
	return r.Replace(template)
}

// LoadFile reads a prompt file. A missing file yields an empty prompt.
func LoadFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading prompt %s: %w", path, err)
	}
	return string(data), nil
}
