// Package flagging reads and writes the CSV feedback log kept in the
// flagging directory.
package flagging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/datenollm/internal/history"
)

// FileName is the log file created inside the flagging directory.
const FileName = "log.csv"

// Column names of the log.
const (
	ColConversation = "conversation"
	ColIndex        = "index"
	ColLikeDislike  = "like_dislike"
	ColFlag         = "flag"
)

// Header is written at the top of a new log.
var Header = []string{ColConversation, ColIndex, ColLikeDislike, ColFlag}

// TimeFormat is used for the flag column.
const TimeFormat = "2006-01-02 15:04:05.000000"

// Record is one feedback row.
type Record struct {
	Conversation history.History
	Index        int
	LikeDislike  history.Feedback
	Flag         time.Time
}

// Log appends records to <Dir>/log.csv.
type Log struct {
	Dir string

	mu sync.Mutex
}

// Path returns the location of the CSV file.
func (l *Log) Path() string {
	return filepath.Join(l.Dir, FileName)
}

// Exists reports whether the log file has been created.
func (l *Log) Exists() bool {
	info, err := os.Stat(l.Path())
	return err == nil && !info.IsDir()
}

// Append writes rec, creating the directory and header when needed.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("creating flagging dir: %w", err)
	}
	path := l.Path()
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening flagging log: %w", err)
	}
	defer f.Close()

	conv, err := encodeConversation(rec.Conversation)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	row := []string{conv, strconv.Itoa(rec.Index), string(rec.LikeDislike), rec.Flag.Format(TimeFormat)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	w.Flush()
	return w.Error()
}

func encodeConversation(h history.History) (string, error) {
	if h == nil {
		h = history.History{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil {
		return "", fmt.Errorf("encoding conversation: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

type row map[string]string

func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading flagging log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	rows := make([]row, 0, len(records)-1)
	for _, rec := range records[1:] {
		m := make(row, len(header))
		for i, name := range header {
			if i < len(rec) {
				m[name] = rec[i]
			}
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func readFile(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRows(f)
}

type loggedTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func decodeConversation(s string) []loggedTurn {
	if s == "" {
		return nil
	}
	var turns []loggedTurn
	if err := json.Unmarshal([]byte(s), &turns); err != nil {
		return nil
	}
	return turns
}

// Read flattens every conversation of the log into one history. Roles
// "assistant" and "ai" become assistant turns, anything else a user turn.
// When a conversation ends with an assistant turn, the row's other columns
// become that turn's metadata, with "flag" renamed to "timestamp".
func Read(path string) (history.History, error) {
	rows, err := readFile(path)
	if err != nil {
		return nil, err
	}
	h := history.History{}
	for _, r := range rows {
		turns := decodeConversation(r[ColConversation])
		for i, t := range turns {
			switch strings.ToLower(t.Role) {
			case "assistant", "ai":
				turn := history.AssistantTurn(t.Content)
				if i == len(turns)-1 {
					turn.Metadata = rowMetadata(r)
				}
				h = append(h, turn)
			default:
				h = append(h, history.UserTurn(t.Content))
			}
		}
	}
	return h, nil
}

func rowMetadata(r row) map[string]any {
	meta := make(map[string]any, len(r))
	for k, v := range r {
		if k == ColConversation {
			continue
		}
		if k == ColFlag {
			k = history.KeyTimestamp
		}
		meta[k] = v
	}
	return meta
}

// Conversation returns the stored index and conversation of the n-th data
// row (zero based). found is false when the log has fewer rows.
func Conversation(path string, n int) (index int, h history.History, found bool, err error) {
	rows, err := readFile(path)
	if err != nil {
		return 0, nil, false, err
	}
	if n < 0 || n >= len(rows) {
		return 0, nil, false, nil
	}
	r := rows[n]
	index, err = strconv.Atoi(strings.TrimSpace(r[ColIndex]))
	if err != nil {
		return 0, nil, false, fmt.Errorf("row %d: bad index %q: %w", n, r[ColIndex], err)
	}
	h = history.History{}
	if s := r[ColConversation]; s != "" {
		if err := json.Unmarshal([]byte(s), &h); err != nil {
			return 0, nil, false, fmt.Errorf("row %d: decoding conversation: %w", n, err)
		}
	}
	return index, h, true, nil
}

// Glob expands a doublestar pattern such as ".gradio/**/log.csv".
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	return matches, nil
}

// ReadAll reads every log matching pattern, in match order.
func ReadAll(pattern string) (history.History, error) {
	paths, err := Glob(pattern)
	if err != nil {
		return nil, err
	}
	h := history.History{}
	for _, p := range paths {
		part, err := Read(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		h = append(h, part...)
	}
	return h, nil
}
