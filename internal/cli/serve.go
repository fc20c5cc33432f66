package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	gencache "github.com/kevinmaes/generation-art-sub002/pkg/cache"
	generr "github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/observability"
	"github.com/kevinmaes/generation-art-sub002/pkg/pipeline"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// serveCommand creates the serve command exposing the layout pipeline
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		redisURL    string
		cachePrefix string
		configPath  string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline over HTTP",
		Long: `Serve the layout pipeline over HTTP.

Endpoints:

  POST /v1/layout   accepts a relationship graph (same JSON shape as the
                    layout command's input file) and responds with the
                    computed visual document and a per-stage report
  GET  /healthz     liveness probe

With --redis, computed documents are cached in Redis keyed by graph
content and layout settings; otherwise the local file cache is used.
--cache-prefix namespaces the keys so several deployments can share one
Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings(configPath)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), addr, redisURL, cachePrefix, settings, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the document cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&cachePrefix, "cache-prefix", "", "cache key namespace (e.g. prod:)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML settings file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// layoutServer handles layout requests. One settings snapshot is taken
// at startup; per-request overrides are not supported.
type layoutServer struct {
	logger *log.Logger
	store  gencache.Cache
	keyer  gencache.Keyer
	stages []pipeline.StageInstance
	cfg    walker.Config
}

// layoutResponse is the POST /v1/layout response body.
type layoutResponse struct {
	Document *visual.Document `json:"document"`
	Report   pipeline.Report  `json:"report"`
	Cached   bool             `json:"cached"`
}

// errorResponse is the JSON error body for failed requests.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *CLI) runServe(ctx context.Context, addr, redisURL, cachePrefix string, settings Settings, noCache bool) error {
	logger := loggerFromContext(ctx)

	store, err := c.serveCache(ctx, redisURL, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	var keyer gencache.Keyer = gencache.NewDefaultKeyer()
	if cachePrefix != "" {
		keyer = gencache.NewScopedKeyer(keyer, cachePrefix)
	}

	stages, err := pipeline.ParseStages(settings.Stages)
	if err != nil {
		return err
	}

	srv := &layoutServer{
		logger: logger,
		store:  store,
		keyer:  keyer,
		stages: stages,
		cfg:    settings.Config(),
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      srv.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		printInfo("Serving layout API on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// serveCache builds the document cache for the server: Redis when a URL
// is given (retrying the initial ping), otherwise the local file cache.
func (c *CLI) serveCache(ctx context.Context, redisURL string, noCache bool) (gencache.Cache, error) {
	if noCache {
		return gencache.NewNullCache(), nil
	}
	if redisURL == "" {
		return newCache(false)
	}

	var store gencache.Cache
	err := gencache.RetryWithBackoff(ctx, func() error {
		rc, err := gencache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return err
		}
		store = rc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	loggerFromContext(ctx).Info("document cache", "backend", "redis")
	return store, nil
}

func (s *layoutServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/layout", s.handleLayout)
	return r
}

// logRequests logs one line per request through the structured logger.
func (s *layoutServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *layoutServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *layoutServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	var file gen.File
	if err := json.NewDecoder(r.Body).Decode(&file); err != nil {
		writeError(w, generr.Wrap(generr.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	g, err := gen.Build(file, s.logger)
	if err != nil {
		writeError(w, err)
		return
	}

	key, keyed := documentKey(s.keyer, g, s.stages, s.cfg)
	if keyed {
		if data, hit, cerr := s.store.Get(r.Context(), key); cerr == nil && hit {
			if doc, derr := visual.Unmarshal(data); derr == nil {
				observability.Cache().OnCacheHit(r.Context(), "document")
				writeJSON(w, http.StatusOK, layoutResponse{Document: doc, Cached: true})
				return
			}
		}
		observability.Cache().OnCacheMiss(r.Context(), "document")
	}

	orch := pipeline.NewOrchestrator(s.logger)
	result, err := orch.Run(r.Context(), g, s.stages, pipeline.Options{Layout: s.cfg, Logger: s.logger})
	if err != nil {
		writeError(w, err)
		return
	}

	if keyed {
		if data, merr := visual.Marshal(result.Document); merr == nil {
			if serr := s.store.Set(r.Context(), key, data, gencache.TTLDocument); serr == nil {
				observability.Cache().OnCacheSet(r.Context(), "document", len(data))
			}
		}
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		Document: result.Document,
		Report:   result.Report,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps structured error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch generr.GetCode(err) {
	case generr.ErrCodeInvalidInput, generr.ErrCodeInvalidGraph,
		generr.ErrCodeInvalidStage, generr.ErrCodeInvalidIndividual,
		generr.ErrCodeInvalidSettings, generr.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case generr.ErrCodeNotFound, generr.ErrCodeIndividualNotFound,
		generr.ErrCodeFileNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{
		Code:    string(generr.GetCode(err)),
		Message: generr.UserMessage(err),
	})
}
