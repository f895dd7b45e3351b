// Package api serves the journal read-only over local HTTP, for browsing
// entries without leaving the terminal or editor.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/commitstory-dev/commitstory/internal/journal"
)

type Server struct {
	router  *chi.Mux
	port    int
	journal *journal.Writer
}

func NewServer(port int, j *journal.Writer) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		journal: j,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/journal/entries", s.listEntries)
	router.Get("/api/v1/journal/entries/{date}", s.readEntry)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	slog.Info("journal server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	files, err := s.journal.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if files == nil {
		files = []journal.EntryFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) readEntry(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	data, err := s.journal.Read(date)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no entries for " + date})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
