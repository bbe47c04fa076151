package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/datenollm/internal/journal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "ask"
	Content string `json:"content"`
	Params  string `json:"params"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type     string `json:"type"` // "response" or "error"
	Content  string `json:"content"`
	Fallback bool   `json:"fallback,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("websocket read")
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "invalid message format")
			continue
		}

		if req.Content == "" {
			s.sendError(conn, "content is required")
			continue
		}

		switch req.Type {
		case "ask":
			s.handleAskMessage(conn, r, req)
		default:
			s.sendError(conn, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleAskMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	start := time.Now()
	res, err := s.orch.AskResult(r.Context(), req.Content, req.Params)
	s.record(r.Context(), journal.OpAsk, req.Content, res, err, time.Since(start))
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}
	s.sendResponse(conn, chatResponse{Type: "response", Content: res.Text, Fallback: res.Fallback})
}

func (s *Server) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.WithError(err).Warn("websocket write")
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	resp := chatResponse{Type: "error", Content: message}
	if err := conn.WriteJSON(resp); err != nil {
		s.log.WithError(err).Warn("websocket write error")
	}
}
