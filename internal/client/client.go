// Package client talks to a running datenollm server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
	"github.com/ziadkadry99/datenollm/internal/server"
)

// TokenEnv names the environment variable holding the bearer token.
const TokenEnv = "HF_TOKEN"

// Client calls the server HTTP API.
type Client struct {
	addr  string
	token string
	http  *http.Client
}

// New creates a client for addr. An empty token falls back to $HF_TOKEN.
func New(addr, token string) *Client {
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	return &Client{
		addr:  strings.TrimRight(addr, "/"),
		token: token,
		http:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Error is a non-success response from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := io.Copy(w, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// AskOptions tune a single Ask. Zero values use the server defaults.
type AskOptions struct {
	HistoryPath string
	PromptPath  string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Ask sends query to the server. With a HistoryPath the stored history is
// sent along and the new turn pair appended to the file afterwards.
func (c *Client) Ask(ctx context.Context, query string, opts AskOptions) (string, error) {
	var p orchestrator.Params
	if opts.PromptPath != "" {
		text, err := readPrompt(opts.PromptPath)
		if err != nil {
			return "", err
		}
		p.Prompt = text
	}
	p.Model = opts.Model
	p.MaxTokens = opts.MaxTokens
	p.Temperature = opts.Temperature
	p.TopP = opts.TopP

	var file *history.File
	if opts.HistoryPath != "" {
		file = &history.File{Path: opts.HistoryPath}
		h, err := file.Load()
		if err != nil {
			return "", err
		}
		p.History = h
	}

	params, err := p.Encode()
	if err != nil {
		return "", err
	}
	var resp server.DataResponse
	if err := c.do(ctx, http.MethodPost, "/api/ask", server.AskRequest{Message: query, Params: params}, &resp); err != nil {
		return "", err
	}

	if file != nil {
		if err := file.Save(p.History.Append(query, resp.Data)); err != nil {
			return resp.Data, err
		}
	}
	return resp.Data, nil
}

func readPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	return string(data), nil
}

// Filter sends a filtering request.
func (c *Client) Filter(ctx context.Context, req orchestrator.FilterRequest) (string, error) {
	var resp server.DataResponse
	if err := c.do(ctx, http.MethodPost, "/api/filter", req, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

// Like records feedback for a conversation.
func (c *Client) Like(ctx context.Context, index int, messages history.History, like bool) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/like", server.LikeRequest{Index: index, Messages: raw, Like: like}, nil)
}

// GetLogs downloads the flagging log into dest.
func (c *Client) GetLogs(ctx context.Context, dest io.Writer) error {
	return c.do(ctx, http.MethodGet, "/api/logs", nil, dest)
}

// Search executes a query list against the Dateno index through the server.
func (c *Client) Search(ctx context.Context, llmResponse string) ([]dateno.QueryResult, error) {
	raw, err := json.Marshal(llmResponse)
	if err != nil {
		return nil, err
	}
	var results []dateno.QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/dateno_search", server.SearchRequest{LLMResponse: raw}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ResultsHTML renders search results on the server.
func (c *Client) ResultsHTML(ctx context.Context, results []dateno.QueryResult, verbose bool) (string, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	var resp server.DataResponse
	if err := c.do(ctx, http.MethodPost, "/api/results2html", server.ResultsHTMLRequest{Data: raw, Verbose: verbose}, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

// Settings returns the server defaults.
func (c *Client) Settings(ctx context.Context) (orchestrator.Settings, error) {
	var s orchestrator.Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s)
	return s, err
}
