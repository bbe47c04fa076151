package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func liked(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Metadata: map[string]any{KeyLikeDislike: "Like"}}
}

func TestToContextKeepsOnlyFeedbackPairs(t *testing.T) {
	h := History{
		UserTurn("A"),
		liked("B"),
		UserTurn("C"),
		AssistantTurn("D"),
	}

	got := ToContext(h)
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d: %+v", len(got), got)
	}
	if got[0].Role != RoleUser || got[0].Content != "A" {
		t.Errorf("got[0] = %+v, want user(A)", got[0])
	}
	if got[1].Role != RoleAssistant || got[1].Content != "B" {
		t.Errorf("got[1] = %+v, want assistant(B)", got[1])
	}
}

func TestToContextPairsMostRecentUser(t *testing.T) {
	dislike := Turn{Role: RoleAssistant, Content: "Z", Metadata: map[string]any{KeyLikeDislike: "Dislike"}}
	h := History{
		UserTurn("first"),
		UserTurn("second"),
		dislike,
		liked("again"),
	}

	got := ToContext(h)
	if len(got) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(got))
	}
	for i, want := range []string{"second", "Z", "second", "again"} {
		if got[i].Content != want {
			t.Errorf("got[%d].Content = %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestToContextSkipsOrphanAssistantAndEmptyFeedback(t *testing.T) {
	empty := Turn{Role: RoleAssistant, Content: "E", Metadata: map[string]any{KeyLikeDislike: ""}}
	h := History{liked("orphan"), UserTurn("q"), empty}

	if got := ToContext(h); len(got) != 0 {
		t.Errorf("expected empty context, got %+v", got)
	}
}

func TestToContextNonStringMarks(t *testing.T) {
	marked := func(content string, v any) Turn {
		return Turn{Role: RoleAssistant, Content: content, Metadata: map[string]any{KeyLikeDislike: v}}
	}
	h := History{
		UserTurn("A"), marked("B", true),
		UserTurn("C"), marked("D", float64(1)),
		UserTurn("E"), marked("F", map[string]any{"value": "Like"}),
		UserTurn("G"), marked("H", false),
		UserTurn("I"), marked("J", float64(0)),
		UserTurn("K"), marked("L", nil),
		UserTurn("M"), marked("N", []any{}),
	}

	got := ToContext(h)
	want := []string{"A", "B", "C", "D", "E", "F"}
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("got[%d].Content = %q, want %q", i, got[i].Content, w)
		}
	}
	if got[1].Feedback() != FeedbackNone {
		t.Errorf("Feedback() of a bool mark = %q, want none", got[1].Feedback())
	}
}

func TestToContextDecodedBoolMark(t *testing.T) {
	var h History
	data := `[{"role":"user","content":"A"},{"role":"assistant","content":"B","metadata":{"like_dislike":true}}]`
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := ToContext(h)
	if len(got) != 2 || got[0].Content != "A" || got[1].Content != "B" {
		t.Errorf("ToContext = %+v, want [user(A) assistant(B)]", got)
	}
}

func TestAppendDoesNotMutate(t *testing.T) {
	h := History{UserTurn("q1"), AssistantTurn("a1")}
	got := h.Append("q2", "a2")

	if len(h) != 2 {
		t.Errorf("original history mutated: %d turns", len(h))
	}
	if len(got) != 4 || got[2].Role != RoleUser || got[3].Role != RoleAssistant {
		t.Errorf("unexpected appended history: %+v", got)
	}
	if got[3].Metadata != nil || got[3].Options != nil {
		t.Errorf("appended turns should carry null metadata and options")
	}
}

func TestMarkLast(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	h := History{UserTurn("q"), AssistantTurn("a")}

	marked := h.MarkLast(FeedbackLike, now)
	meta := marked[1].Metadata
	if meta[KeyLikeDislike] != "Like" {
		t.Errorf("like_dislike = %v", meta[KeyLikeDislike])
	}
	if meta[KeyIndex] != 2 {
		t.Errorf("index = %v, want 2", meta[KeyIndex])
	}
	if meta[KeyTimestamp] != "2025-03-04 05:06:07.000000" {
		t.Errorf("timestamp = %v", meta[KeyTimestamp])
	}
	if h[1].Metadata != nil {
		t.Error("MarkLast mutated the receiver")
	}

	cleared := marked.MarkLast(FeedbackNone, now)
	if cleared[1].Metadata == nil || len(cleared[1].Metadata) != 0 {
		t.Errorf("FeedbackNone should reset metadata to an empty object, got %v", cleared[1].Metadata)
	}

	if got := (History{}).MarkLast(FeedbackLike, now); len(got) != 0 {
		t.Errorf("empty history should stay empty")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	h, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h == nil || len(h) != 0 {
		t.Errorf("expected empty non-nil history, got %#v", h)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed history")
	}
}

func TestLoadNonStringContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	data := `[
  {"role": "user", "metadata": null, "content": "climate", "options": null},
  {"role": "assistant", "metadata": null, "content": {"question": "q", "queries": []}, "options": null},
  {"role": "assistant", "content": null},
  {"role": "user", "content": 42}
]`
	os.WriteFile(path, []byte(data), 0o644)

	h, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(h) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(h))
	}
	want := []string{"climate", `{"question":"q","queries":[]}`, "", "42"}
	for i, w := range want {
		if h[i].Content != w {
			t.Errorf("h[%d].Content = %q, want %q", i, h[i].Content, w)
		}
	}
	if h[1].Role != RoleAssistant || h[1].Metadata != nil {
		t.Errorf("h[1] = %+v", h[1])
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.json")
	h := History{
		UserTurn("климат"),
		{
			Role:     RoleAssistant,
			Content:  `{"question":"","queries":[]}`,
			Metadata: map[string]any{KeyLikeDislike: "Dislike"},
			Options:  json.RawMessage(`{"keep":true}`),
		},
	}

	if err := Save(path, h); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "климат") {
		t.Errorf("non-ASCII content should be written verbatim: %s", raw)
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Errorf("expected two-space indentation: %s", raw)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(loaded))
	}
	if loaded[1].Feedback() != FeedbackDislike {
		t.Errorf("feedback = %q", loaded[1].Feedback())
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, loaded[1].Options); err != nil || compact.String() != `{"keep":true}` {
		t.Errorf("options not preserved: %s", loaded[1].Options)
	}
	if loaded[0].Metadata != nil {
		t.Errorf("null metadata should load as nil, got %v", loaded[0].Metadata)
	}
}

func TestSaveWritesNullFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.json")
	if err := Save(path, History{UserTurn("q")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"role", "metadata", "content", "options"} {
		if _, ok := decoded[0][key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if decoded[0]["metadata"] != nil || decoded[0]["options"] != nil {
		t.Errorf("metadata and options should be null: %s", raw)
	}
}

func TestSequentialSavesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	first := History{UserTurn("one"), AssistantTurn("1")}
	second := History{UserTurn("two"), AssistantTurn("2"), UserTurn("three"), AssistantTurn("3")}

	if err := Save(path, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := Save(path, second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != len(second) || loaded[0].Content != "two" {
		t.Errorf("second save should fully replace the first, got %+v", loaded)
	}

	if err := Save(path, first); err != nil {
		t.Fatalf("third Save: %v", err)
	}
	loaded, _ = Load(path)
	if len(loaded) != 2 || loaded[0].Content != "one" {
		t.Errorf("no merge expected, got %+v", loaded)
	}
}

func TestFileRecord(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "history.json")}

	if _, err := f.Record("q1", "a1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	h, err := f.Record("q2", "a2")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(h) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(h))
	}

	loaded, _ := f.Load()
	if len(loaded) != 4 || loaded[3].Content != "a2" {
		t.Errorf("file content = %+v", loaded)
	}
}
