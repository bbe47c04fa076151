package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/response"
)

func sampleResults() []dateno.QueryResult {
	return []dateno.QueryResult{
		{
			Query: response.QueryRequest{
				Query:   "rainfall",
				Filters: []response.Filter{{Name: "source.countries.name", Value: "Kenya"}},
			},
			Results: json.RawMessage(`{"hits":{"hits":[{"_id":"abc","_source":{"dataset":{"title":"Kenya | rainfall","description":"Monthly\nrainfall"}}}]}}`),
		},
		{
			Query:   response.QueryRequest{Query: "<script>"},
			Results: json.RawMessage(`{"hits":{"hits":[]}}`),
		},
	}
}

func TestResultsHTML(t *testing.T) {
	out, err := ResultsHTML(sampleResults(), false)
	if err != nil {
		t.Fatalf("ResultsHTML: %v", err)
	}
	for _, want := range []string{
		"<h2>rainfall</h2>",
		"source.countries.name=Kenya",
		`href="https://dateno.io/search/#abc"`,
		"<table>",
		"No results found.",
		"&lt;script&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("query text should be escaped")
	}
	if strings.Contains(out, "<pre") {
		t.Error("non-verbose output should not include query JSON")
	}
}

func TestResultsHTMLVerbose(t *testing.T) {
	out, err := ResultsHTML(sampleResults(), true)
	if err != nil {
		t.Fatalf("ResultsHTML: %v", err)
	}
	if !strings.Contains(out, "<pre") {
		t.Errorf("verbose output should include a code block:\n%s", out)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	out, err := Markdown(nil, false)
	if err != nil || out != "" {
		t.Errorf("Markdown(nil) = %q, %v", out, err)
	}
}
