package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"repomatch/internal/analytics"
	"repomatch/internal/ghclient"
	"repomatch/internal/logging"
	"repomatch/internal/metrics"
	"repomatch/internal/recommend"
)

// recentWindow marks owned repositories as recently active in summaries.
const recentWindow = 90 * 24 * time.Hour

// KeywordsResponse is the body of GET /v1/keywords/{login}.
type KeywordsResponse struct {
	Login    string            `json:"login"`
	Keywords []string          `json:"keywords"`
	Summary  analytics.Summary `json:"summary"`
}

// Config tunes the middleware in front of the /v1 routes.
type Config struct {
	// Requests per client IP allowed in RateLimitWindow; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Empty disables CORS headers.
	CORSAllowedOrigins []string
}

// NewHandler returns the HTTP API backed by engine.
func NewHandler(engine *recommend.Engine, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		// Every /v1 request fans out into many GitHub calls.
		if cfg.RateLimitRequests > 0 {
			r.Use(httprate.Limit(
				cfg.RateLimitRequests,
				cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					httpError(w, http.StatusTooManyRequests, "rate_limit_error", "too many requests, retry later")
				}),
			))
		}
		r.Get("/recommendations/{login}", handleRecommendations(engine))
		r.Get("/keywords/{login}", handleKeywords(engine))
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func handleRecommendations(engine *recommend.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := engine.Recommend(r.Context(), chi.URLParam(r, "login"))
		if err != nil {
			profileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func handleKeywords(engine *recommend.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := engine.Profile(r.Context(), chi.URLParam(r, "login"))
		if err != nil {
			profileError(w, err)
			return
		}
		keywords := recommend.ExtractKeywords(p, engine.Options().Keywords)
		if keywords == nil {
			keywords = []string{}
		}
		writeJSON(w, http.StatusOK, KeywordsResponse{
			Login:    p.Login,
			Keywords: keywords,
			Summary:  analytics.Summarize(p, time.Now(), recentWindow),
		})
	}
}

func profileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrEmptyLogin):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "login is required")
	case ghclient.IsNotFound(err):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	default:
		httpError(w, http.StatusBadGateway, "upstream_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encode_response_failed", map[string]any{"error": err.Error()})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info("http_request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": middleware.GetReqID(r.Context()),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	})
}
