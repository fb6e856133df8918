// Package pointsapi serves the published collection points as GeoJSON for the map front end.
package pointsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/db"
	"github.com/hirudo/hirudo-etl/internal/etl"
	"github.com/hirudo/hirudo-etl/internal/publish"
)

// datePattern accepts DD/MM and DD/MM/YYYY.
var datePattern = regexp.MustCompile(`^\d{2}/\d{2}(/\d{4})?$`)

// RunLister lists recent job runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]etl.RunEntry, error)
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	Runs           RunLister // optional; /runs is not mounted without it
}

// Server answers read-only queries over the published tables.
type Server struct {
	pool db.Pool
	opts Options
}

// NewServer creates a Server reading through pool.
func NewServer(pool db.Pool, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{pool: pool, opts: opts}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/points/fixed", s.handleFixed)
	r.Get("/points/mobile", s.handleMobile)
	r.Get("/keys/{kind}", s.handleKeys)
	if s.opts.Runs != nil {
		r.Get("/runs", s.handleRuns)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFixed(w http.ResponseWriter, r *http.Request) {
	fc, err := s.featureCollection(r.Context(), publish.FixedTableName, "", nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeGeoJSON(w, fc)
}

func (s *Server) handleMobile(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		fc, err := s.featureCollection(r.Context(), publish.MobileTableName, "", nil)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeGeoJSON(w, fc)
		return
	}
	if !datePattern.MatchString(date) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be DD/MM or DD/MM/YYYY"})
		return
	}
	fc, err := s.featureCollection(r.Context(), publish.MobileTableName, `WHERE t.fecha LIKE $1 || '%'`, []any{date})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeGeoJSON(w, fc)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var table string
	switch chi.URLParam(r, "kind") {
	case "fixed":
		table = publish.FixedKeysTableName
	case "mobile":
		table = publish.MobileKeysTableName
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "kind must be fixed or mobile"})
		return
	}
	keys, err := s.keys(r.Context(), table)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}
	runs, err := s.opts.Runs.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []etl.RunEntry{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// fail maps a missing table to 404 and anything else to 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if db.IsUndefinedTable(err) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not published yet"})
		return
	}
	zap.L().Error("pointsapi: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGeoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("pointsapi: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
