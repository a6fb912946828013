package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/talentscout/screener/internal/interview"
	"github.com/talentscout/screener/internal/logger"
	"github.com/talentscout/screener/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const serveShutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve screening interviews over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", ":8080", "address for the HTTP server to listen on")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talentscout", zap.String("version", version))

	st, err := openStore(config, logger)
	if err != nil {
		logger.Fatal("opening the candidate store", zap.Error(err))
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(app, registry)

	questions := newQuestionGenerator(ctx, config, logger, func() {
		metrics.GenerationFallbacks.Inc()
	})

	manager := interview.NewManager(interview.Deps{
		Logger:    logger,
		Questions: questions,
		Store:     st,
		Metrics:   metrics,
	})

	api := &sessionAPI{manager: manager, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", api.open)
		r.Post("/{sessionID}/messages", api.message)
		r.Get("/{sessionID}/progress", api.progress)
	})

	server := &http.Server{
		Addr:              viper.GetString("listen"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.Fatal("http server failed", zap.Error(err))
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down the http server", zap.Error(err))
	}
}

type sessionAPI struct {
	manager *interview.Manager
	logger  *zap.Logger
}

type messageRequest struct {
	Message string `json:"message"`
}

type replyResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Prompt    string `json:"prompt"`
	State     string `json:"state"`
	Terminal  bool   `json:"terminal"`
}

func (a *sessionAPI) open(w http.ResponseWriter, _ *http.Request) {
	sessionID, reply := a.manager.Open()

	a.logger.Info("opened session", zap.String("session_id", sessionID))

	writeJSON(w, http.StatusCreated, replyResponse{
		SessionID: sessionID,
		Prompt:    reply.Prompt,
		State:     reply.State.String(),
		Terminal:  reply.Terminal,
	})
}

func (a *sessionAPI) message(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	reply, err := a.manager.HandleInput(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, interview.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session: %s", sessionID))
			return
		}

		// Persistence failures already produced a candidate-facing
		// prompt. Log the cause and return the reply as usual.
		a.logger.Error("handling message", zap.String("session_id", sessionID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, replyResponse{
		Prompt:   reply.Prompt,
		State:    reply.State.String(),
		Terminal: reply.Terminal,
	})
}

func (a *sessionAPI) progress(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	progress, err := a.manager.Progress(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session: %s", sessionID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"progress": progress})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
