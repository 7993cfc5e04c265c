package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"lentera/internal/kiwix"
	"lentera/internal/middleware"
	"lentera/internal/ollama"
	"lentera/internal/progress"
	"lentera/internal/services"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Handler handles HTTP requests.
type Handler struct {
	search    SearchService
	generator ArtifactGenerator
	hub       *progress.Hub
	upgrader  websocket.Upgrader
}

func NewHandler(search SearchService, generator ArtifactGenerator, hub *progress.Hub) *Handler {
	return &Handler{
		search:    search,
		generator: generator,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Single-user local deployment, any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type searchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

// Search runs the full pipeline for one query. The response carries the
// request id so the client can have been streaming progress over the
// WebSocket opened with the same id.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.Language == "" {
		req.Language = "english"
	}

	requestID := middleware.GetRequestID(r.Context())

	outcome, err := h.search.Search(r.Context(), requestID, req.Query, req.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestID,
		"result":     outcome,
	})
}

func (h *Handler) Mindmap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	mindmap, err := h.generator.Mindmap(r.Context(), id, language(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mindmap)
}

func (h *Handler) Flashquiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	quiz, err := h.generator.Flashquiz(r.Context(), id, language(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, err := h.generator.Summary(r.Context(), id, language(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Progress upgrades the connection and streams stage events for the
// request id in the path.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]
	if requestID == "" {
		http.Error(w, "request id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Subscribe(requestID, conn)
}

func language(r *http.Request) string {
	if lang := r.URL.Query().Get("language"); lang != "" {
		return lang
	}
	return "english"
}

// writeError maps pipeline failures onto HTTP statuses: missing content
// is the client's problem, upstream model or corpus failures are gateway
// errors, everything else is internal.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.AddSpanError(r.Context(), err)
	log.Printf("[%s] request failed: %v", middleware.GetRequestID(r.Context()), err)

	status := http.StatusInternalServerError

	var ollamaErr *ollama.ServiceError
	var kiwixErr *kiwix.ServiceError
	var parseErr *services.ParseError
	var keywordErr services.KeywordError

	switch {
	case errors.Is(err, services.ErrContentNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ollamaErr), errors.As(err, &kiwixErr),
		errors.As(err, &parseErr), errors.As(err, &keywordErr):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
