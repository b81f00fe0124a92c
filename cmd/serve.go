package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/insight"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prospect discovery REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(e),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/prospects", func(r chi.Router) {
		r.Post("/discover", handleDiscover(e))
		r.Get("/", handleList(e))
		r.Get("/{id}", handleGet(e))
		r.Post("/{id}/insights", handleInsights(e))
		r.Post("/{id}/outreach", handleOutreach(e))
	})

	return r
}

// handleDiscover runs the full pipeline. The fallback chain means a
// well-formed request always returns 200 with at least one prospect.
// Results are persisted only when the request opts in with "save".
func handleDiscover(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			model.SearchFilters
			Save bool `json:"save"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), discoverTimeout())
		defer cancel()

		prospects, meta, err := e.Orchestrator.Discover(ctx, req.SearchFilters)
		if err != nil {
			zap.L().Error("discovery failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "discovery failed")
			return
		}

		if req.Save {
			meta.NewCount = persistProspects(ctx, e.Store, prospects)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"prospects": prospects,
			"metadata":  meta,
		})
	}
}

func handleList(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.ProspectFilter{
			Industry: q.Get("industry"),
			Company:  q.Get("company"),
			Source:   q.Get("source"),
		}
		filter.MinScore, _ = strconv.Atoi(q.Get("min_score"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		filter.Offset, _ = strconv.Atoi(q.Get("offset"))

		prospects, err := e.Store.ListProspects(r.Context(), filter)
		if err != nil {
			zap.L().Error("list prospects failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if prospects == nil {
			prospects = []model.Prospect{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"prospects": prospects})
	}
}

func handleGet(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProspect(w, r, e)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleInsights(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProspect(w, r, e)
		if !ok {
			return
		}

		// Insights never fail: without a generator the generic
		// bundle is served directly.
		bundle := insight.GenericBundle()
		if e.Insights != nil {
			bundle = e.Insights.Insights(r.Context(), p.Contact)
		}
		writeJSON(w, http.StatusOK, bundle)
	}
}

func handleOutreach(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProspect(w, r, e)
		if !ok {
			return
		}
		if e.Insights == nil {
			writeError(w, http.StatusServiceUnavailable, "generation not configured")
			return
		}

		var req struct {
			Channel   string `json:"channel"`
			Tone      string `json:"tone"`
			Objective string `json:"objective"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		msg, err := e.Insights.Outreach(r.Context(), p.Contact, req.Channel, req.Tone, req.Objective)
		if err != nil {
			zap.L().Error("outreach generation failed", zap.String("id", p.ID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "generation failed")
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func loadProspect(w http.ResponseWriter, r *http.Request, e *env) (*model.Prospect, bool) {
	id := chi.URLParam(r, "id")
	p, err := e.Store.GetProspect(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prospect not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("get prospect failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return p, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
