package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"feedrelay/internal/application/usecase/aggregate"
	"feedrelay/internal/domain"
)

// ApiError is the JSON error body.
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeInvalidCategory = "INVALID_CATEGORY"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

func writeJsonError(w http.ResponseWriter, statusCode int, errCode string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]ApiError{"error": {Code: errCode, Message: message}})
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response failed")
	}
}

// Aggregator is what the read endpoints need from the aggregation service.
type Aggregator interface {
	EnsureFresh(ctx context.Context)
	View(f aggregate.Filter) []domain.LivePriceView
	Health() map[domain.Source]aggregate.SourceHealth
	CacheAge() time.Duration
}

type ServerDeps struct {
	Addr         string
	Aggregator   Aggregator
	RelayEnabled bool
	Metrics      http.Handler // optional
	Push         http.Handler // optional websocket endpoint
	Subscribers  func() int   // optional
}

type Server struct {
	deps   ServerDeps
	router *mux.Router
	srv    *http.Server
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.srv = &http.Server{
		Addr:              deps.Addr,
		Handler:           c.Handler(s.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(recoverMiddleware, logMiddleware)
	s.router.HandleFunc("/prices/live", s.handleLivePrices()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics).Methods(http.MethodGet)
	}
	if s.deps.Push != nil {
		s.router.Handle("/ws", s.deps.Push)
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.deps.Addr).Msg("✓ HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type livePricesResp struct {
	Prices []domain.LivePriceView `json:"prices"`
}

// handleLivePrices serves the cached view, refreshing first if the cache expired.
// Provider failures only degrade the data; they never turn into a 5xx.
func (s *Server) handleLivePrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := aggregate.Filter{AssetID: strings.TrimSpace(q.Get("assetId"))}
		if raw := strings.TrimSpace(q.Get("category")); raw != "" {
			cat, ok := domain.ParseCategory(raw)
			if !ok {
				writeJsonError(w, http.StatusBadRequest, ErrCodeInvalidCategory, "unknown category: "+raw)
				return
			}
			f.Category = cat
		}

		s.deps.Aggregator.EnsureFresh(r.Context())
		writeJson(w, livePricesResp{Prices: s.deps.Aggregator.View(f)})
	}
}

type healthResp struct {
	Status          string                                   `json:"status"`
	CacheAgeSeconds float64                                  `json:"cacheAgeSeconds"`
	RelayEnabled    bool                                     `json:"relayEnabled"`
	Subscribers     int                                      `json:"subscribers"`
	Sources         map[domain.Source]aggregate.SourceHealth `json:"sources"`
	Timestamp       string                                   `json:"timestamp"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources := s.deps.Aggregator.Health()
		age := s.deps.Aggregator.CacheAge()

		status := "ok"
		if age < 0 {
			status = "starting"
		} else {
			for _, h := range sources {
				if !h.OK {
					status = "degraded"
					break
				}
			}
		}

		resp := healthResp{
			Status:          status,
			CacheAgeSeconds: age.Seconds(),
			RelayEnabled:    s.deps.RelayEnabled,
			Sources:         sources,
			Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
		}
		if age < 0 {
			resp.CacheAgeSeconds = -1
		}
		if s.deps.Subscribers != nil {
			resp.Subscribers = s.deps.Subscribers()
		}
		writeJson(w, resp)
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeJsonError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
