// Package render turns Dateno search results into HTML.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/response"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// Markdown renders results as one section per query with a table of
// linked dataset titles. verbose adds the query itself as a JSON block.
func Markdown(results []dateno.QueryResult, verbose bool) (string, error) {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", escape(r.Query.Query))
		if len(r.Query.Filters) > 0 {
			fmt.Fprintf(&b, "Filters: %s\n\n", escape(filterLine(r.Query.Filters)))
		}
		if verbose {
			q, err := json.MarshalIndent(r.Query, "", "  ")
			if err != nil {
				return "", fmt.Errorf("encoding query: %w", err)
			}
			fmt.Fprintf(&b, "```json\n%s\n```\n\n", q)
		}

		rows := dateno.Rows(r.Hits())
		if len(rows) == 0 {
			b.WriteString("No results found.\n")
			continue
		}
		fmt.Fprintf(&b, "Records found: %d\n\n", len(rows))
		b.WriteString("| # | Dataset | Description |\n|---|---|---|\n")
		for n, row := range rows {
			fmt.Fprintf(&b, "| %d | [%s](%s) | %s |\n", n+1, cell(row.Title), row.Link, cell(row.Description))
		}
	}
	return b.String(), nil
}

// ResultsHTML renders results to HTML.
func ResultsHTML(results []dateno.QueryResult, verbose bool) (string, error) {
	src, err := Markdown(results, verbose)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering results: %w", err)
	}
	return buf.String(), nil
}

func filterLine(filters []response.Filter) string {
	return strings.Join(dateno.FilterStrings(filters), ", ")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "`", "\\`",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

// cell escapes text for a table cell and keeps it on one line.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(escape(s), "|", `\|`)
}
