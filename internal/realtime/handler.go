package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/transport"
)

// TokenValidator verifies an access token; the SSE endpoint accepts the
// token as a query parameter because EventSource cannot set headers.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	hub    *Hub
	tokens TokenValidator
}

func NewHandler(hub *Hub, tokens TokenValidator) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		hub:         hub,
		tokens:      tokens,
	}
}

// Stream is the SSE endpoint. The first frame is a "connected" event
// carrying the connection id; join/leave calls reference that id.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authenticate(r)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	conn := h.hub.Register(claims.UserID)
	defer h.hub.Unregister(conn.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, Message{Event: "connected", Data: map[string]string{"connection_id": conn.ID}})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.Done():
			return
		case msg := <-conn.C:
			writeFrame(w, msg)
			flusher.Flush()
		}
	}
}

type roomRequest struct {
	ConnectionID string `json:"connection_id"`
	ArticleID    int64  `json:"article_id"`
}

// JoinArticle subscribes one of the caller's connections to an article room.
func (h *Handler) JoinArticle(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConnectionID == "" || req.ArticleID == 0 {
		h.WriteError(w, http.StatusBadRequest, "connection_id and article_id are required")
		return
	}

	if !h.hub.JoinArticle(req.ConnectionID, principal.ID, req.ArticleID) {
		h.WriteError(w, http.StatusNotFound, "connection not found")
		return
	}
	h.WriteMessage(w, http.StatusOK, "joined")
}

// LeaveArticle drops the room subscription.
func (h *Handler) LeaveArticle(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConnectionID == "" || req.ArticleID == 0 {
		h.WriteError(w, http.StatusBadRequest, "connection_id and article_id are required")
		return
	}

	if !h.hub.LeaveArticle(req.ConnectionID, principal.ID, req.ArticleID) {
		h.WriteError(w, http.StatusNotFound, "connection not found")
		return
	}
	h.WriteMessage(w, http.StatusOK, "left")
}

func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return h.tokens.ValidateAccessToken(token)
}

func writeFrame(w http.ResponseWriter, msg Message) {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
}
