package api

import (
	"net/http"

	"lentera/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Middleware runs in order: tracing first, then recovery, then CORS.
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/search", h.Search).Methods("POST")
	api.HandleFunc("/mindmap/{id}", h.Mindmap).Methods("GET")
	api.HandleFunc("/flashquiz/{id}", h.Flashquiz).Methods("GET")
	api.HandleFunc("/summary/{id}", h.Summary).Methods("GET")

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/ws/progress/{id}", h.Progress)

	return r
}
