package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/journal"
	"github.com/ziadkadry99/datenollm/internal/metrics"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
	"github.com/ziadkadry99/datenollm/internal/render"
	"github.com/ziadkadry99/datenollm/internal/response"
)

const maxBodyBytes = 8 << 20

// AskRequest is the body of POST /api/ask. Params is a JSON-encoded object.
type AskRequest struct {
	Message string `json:"message"`
	Params  string `json:"params"`
}

// DataResponse wraps a textual result.
type DataResponse struct {
	Data string `json:"data"`
}

// LikeRequest is the body of POST /api/like. Messages may be a single turn
// object or an array of turns.
type LikeRequest struct {
	Index    int             `json:"index"`
	Messages json.RawMessage `json:"messages"`
	Like     bool            `json:"like"`
}

// SearchRequest is the body of POST /api/dateno_search. LLMResponse is the
// query list, either as an object or as its JSON text.
type SearchRequest struct {
	LLMResponse json.RawMessage `json:"llm_response"`
}

// ResultsHTMLRequest is the body of POST /api/results2html.
type ResultsHTMLRequest struct {
	Data    json.RawMessage `json:"data"`
	Verbose bool            `json:"verbose"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	res, err := s.orch.AskResult(r.Context(), req.Message, req.Params)
	s.record(r.Context(), journal.OpAsk, req.Message, res, err, time.Since(start))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: res.Text})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.FilterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	res, err := s.orch.FilterResult(r.Context(), req)
	s.record(r.Context(), journal.OpFilter, req.Message, res, err, time.Since(start))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: res.Text})
}

// decodeTurns accepts a single turn object or an array of turns.
func decodeTurns(raw json.RawMessage) (history.History, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return history.History{}, nil
	}
	if raw[0] == '{' {
		var t history.Turn
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return history.History{t}, nil
	}
	var h history.History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := decodeTurns(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid messages: "+err.Error())
		return
	}

	like := orchestrator.LikeRequest{Index: req.Index, Messages: msgs, Like: req.Like}
	if err := s.orch.Like(r.Context(), like); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.deps.Journal != nil {
		var content string
		if len(msgs) > 0 {
			content = msgs[len(msgs)-1].Content
		}
		entry := journal.Entry{Operation: journal.OpLike, Response: content, Feedback: string(like.Feedback())}
		if _, err := s.deps.Journal.Log(r.Context(), entry); err != nil {
			s.log.WithError(err).Warn("journal like")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	path, ok := s.orch.Logs()
	if !ok {
		writeError(w, http.StatusNotFound, "no flagging log")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="log.csv"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.orch.Settings()
	settings.Prompt = ""
	writeJSON(w, http.StatusOK, settings)
}

// decodeQueryList accepts a query list object or a JSON string holding one.
func decodeQueryList(raw json.RawMessage) (response.QueryList, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return response.QueryList{}, err
		}
		return response.Parse(text)
	}
	return response.Parse(string(raw))
}

func (s *Server) handleDatenoSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dateno == nil {
		writeError(w, http.StatusServiceUnavailable, "dateno search is not configured")
		return
	}
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ql, err := decodeQueryList(req.LLMResponse)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.deps.Dateno.SearchQueries(r.Context(), ql, s.deps.Page, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleResultsHTML(w http.ResponseWriter, r *http.Request) {
	var req ResultsHTMLRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw := bytes.TrimSpace(req.Data)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		raw = []byte(text)
	}
	var results []dateno.QueryResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &results); err != nil {
			writeError(w, http.StatusBadRequest, "invalid results: "+err.Error())
			return
		}
	}
	html, err := render.ResultsHTML(results, req.Verbose)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: html})
}

// record updates metrics and the journal for one model call.
func (s *Server) record(ctx context.Context, op journal.Operation, message string, res *orchestrator.Result, err error, d time.Duration) {
	outcome := metrics.OutcomeOK
	entry := journal.Entry{Operation: op, Message: message, Duration: d.Milliseconds()}
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		entry.Error = err.Error()
	case res.Fallback:
		outcome = metrics.OutcomeFallback
	}
	if res != nil {
		entry.Model = res.Model
		entry.Response = res.Text
		entry.Fallback = res.Fallback
	}
	s.deps.Metrics.Observe(string(op), outcome, d)

	if s.deps.Journal == nil {
		return
	}
	if _, jerr := s.deps.Journal.Log(context.WithoutCancel(ctx), entry); jerr != nil {
		s.log.WithError(jerr).Warn("journal write failed")
	}
}

func statusFor(err error) int {
	var terr *orchestrator.TransportError
	switch {
	case errors.Is(err, orchestrator.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.As(err, &terr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
