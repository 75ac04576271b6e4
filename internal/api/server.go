package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/render"
	"github.com/pbaille/wanderword/internal/resolver"
	"github.com/pbaille/wanderword/internal/stats"
	"github.com/pbaille/wanderword/internal/store"
)

// Resolver produces journeys
type Resolver interface {
	Resolve(ctx context.Context, word string) (domain.Journey, error)
}

// Archive lists the built-in words
type Archive interface {
	Words() []string
}

// Options configures the server
type Options struct {
	Addr      string
	PublicURL string
	Logger    *slog.Logger
}

// Server handles HTTP requests for the journey API
type Server struct {
	resolver  Resolver
	archive   Archive
	store     *store.Store
	addr      string
	publicURL string
	logger    *slog.Logger
	router    chi.Router
}

// New creates a new API server
func New(r Resolver, a Archive, s *store.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		resolver:  r,
		archive:   a,
		store:     s,
		addr:      opts.Addr,
		publicURL: opts.PublicURL,
		logger:    logger,
	}
	srv.router = srv.routes()
	return srv
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(withCORS)

	r.Get("/health", s.health)

	r.Route("/journeys/{word}", func(r chi.Router) {
		r.Get("/", s.getJourney)
		r.Get("/page", s.getPage)
	})

	r.Get("/archive", s.listArchive)

	r.Get("/cache", s.listCache)
	r.Delete("/cache", s.clearCache)
	r.Delete("/cache/{word}", s.deleteCache)

	r.Get("/favorites", s.listFavorites)
	r.Put("/favorites/{word}", s.addFavorite)
	r.Delete("/favorites/{word}", s.removeFavorite)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("stopping server")
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JourneyResponse is the body of GET /journeys/{word}
type JourneyResponse struct {
	Journey  domain.Journey `json:"journey"`
	Stats    stats.Summary  `json:"stats"`
	ShareURL string         `json:"shareUrl,omitempty"`
	Favorite bool           `json:"favorite"`
}

func (s *Server) getJourney(w http.ResponseWriter, r *http.Request) {
	j, ok := s.resolve(w, r)
	if !ok {
		return
	}

	fav, err := s.store.IsFavorite(r.Context(), domain.NormalizeWord(j.Word))
	if err != nil {
		s.logger.Warn("favorite lookup failed", "word", j.Word, "error", err)
	}

	writeJSON(w, http.StatusOK, JourneyResponse{
		Journey:  j,
		Stats:    stats.Summarize(j),
		ShareURL: s.shareURL(j.Word),
		Favorite: fav,
	})
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	j, ok := s.resolve(w, r)
	if !ok {
		return
	}
	page, err := render.PageBytes(j, render.Options{ShareURL: s.shareURL(j.Word)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// resolve runs the resolver for the {word} path parameter and writes the
// error response itself when it fails
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (domain.Journey, bool) {
	word := strings.TrimSpace(chi.URLParam(r, "word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return domain.Journey{}, false
	}

	j, err := s.resolver.Resolve(r.Context(), word)
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return domain.Journey{}, false
	}
	return j, true
}

func errorStatus(err error) (int, string) {
	var rerr *resolver.ResolutionError
	switch {
	case errors.Is(err, resolver.ErrEmptyInput):
		return http.StatusBadRequest, "word is required"
	case errors.As(err, &rerr) && rerr.Kind == resolver.NotFound:
		return http.StatusNotFound, err.Error()
	case errors.As(err, &rerr):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) shareURL(word string) string {
	return render.ShareURL(s.publicURL, word)
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": s.archive.Words(),
	})
}

func (s *Server) listCache(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) deleteCache(w http.ResponseWriter, r *http.Request) {
	key := domain.NormalizeWord(chi.URLParam(r, "word"))
	if err := s.store.Delete(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Clear(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	words, err := s.store.ListFavorites(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if words == nil {
		words = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": words,
	})
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	key := domain.NormalizeWord(chi.URLParam(r, "word"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}
	if err := s.store.AddFavorite(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	key := domain.NormalizeWord(chi.URLParam(r, "word"))
	if err := s.store.RemoveFavorite(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
