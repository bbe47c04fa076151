package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/progress"
	"github.com/ziadkadry99/datenollm/internal/render"
	"github.com/ziadkadry99/datenollm/internal/response"
)

var (
	searchRemote  bool
	searchFormat  string
	searchDetails bool
)

var searchCmd = &cobra.Command{
	Use:   "search [queries.json|-]",
	Short: "Run a generated query list against the Dateno index",
	Long: `Reads a query list produced by ask (from a file or stdin), runs each query
against the Dateno index and prints the results as markdown, HTML or JSON.
With --remote the queries run through the server instead of calling Dateno
directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		text, err := readInput(args)
		if err != nil {
			return err
		}

		var results []dateno.QueryResult
		if searchRemote {
			results, err = newClient(cfg).Search(cmd.Context(), text)
			if err != nil {
				return err
			}
		} else {
			ql, err := response.Parse(response.Normalize(text))
			if err != nil {
				return err
			}
			page := dateno.DefaultPage()
			if cfg.Dateno.Limit > 0 {
				page.Limit = cfg.Dateno.Limit
			}
			reporter := progress.NewReporter()
			reporter.Start(len(ql.Queries))
			results, err = dateno.NewClient(cfg.Dateno.BaseURL, cfg.Dateno.APIKey).
				SearchQueries(cmd.Context(), ql, page, func(i int, q response.QueryRequest) {
					reporter.Update(i+1, q.Query)
				})
			reporter.Finish()
			if err != nil {
				return err
			}
		}

		var out string
		switch searchFormat {
		case "json":
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			out = string(data)
		case "html":
			if searchRemote {
				out, err = newClient(cfg).ResultsHTML(cmd.Context(), results, searchDetails)
			} else {
				out, err = render.ResultsHTML(results, searchDetails)
			}
		case "markdown", "md":
			out, err = render.Markdown(results, searchDetails)
		default:
			return fmt.Errorf("unknown format %q (want markdown, html or json)", searchFormat)
		}
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

// readInput returns the contents of the named file, or stdin when no file
// or "-" is given.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

func init() {
	searchCmd.Flags().BoolVar(&searchRemote, "remote", false, "run the queries through the server")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "markdown", "output format: markdown, html or json")
	searchCmd.Flags().BoolVar(&searchDetails, "details", false, "include the query JSON above each result table")
	addClientFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
