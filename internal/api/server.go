package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/gasgate-labs/gasgate-backend/internal/ledger"
	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/router"
	"github.com/gasgate-labs/gasgate-backend/internal/watcher"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
)

// Deps are the wired components the API surface exposes.
type Deps struct {
	Ledger  *ledger.Ledger
	Oracle  oracle.FeeOracle
	Router  *router.Router
	Watcher *watcher.Watcher
	Logger  logging.Logger
}

type Server struct {
	router     *mux.Router
	cors       *cors.Cors
	httpServer *http.Server
	logger     logging.Logger
	handler    *Handler
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Ledger == nil || deps.Oracle == nil {
		return nil, fmt.Errorf("ledger and oracle are required")
	}
	if deps.Logger == nil {
		deps.Logger = &logging.NoopLogger{}
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "Content-Length", "Accept-Encoding", "Origin", "X-Requested-With"},
		AllowCredentials: false,
	})

	s := &Server{
		router:  mux.NewRouter(),
		cors:    corsHandler,
		logger:  deps.Logger,
		handler: NewHandler(deps),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	h := s.handler

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(mux.CORSMethodMiddleware(api))

	// Job routes
	api.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	api.HandleFunc("/jobs", h.ListActiveJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/execute", h.ExecuteJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/cancel", h.CancelJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/can-execute", h.CanExecuteJob).Methods("GET")

	// Custody balances
	api.HandleFunc("/balances/deposit", h.Deposit).Methods("POST")
	api.HandleFunc("/balances/{address}", h.GetBalance).Methods("GET")

	// Fee routes
	api.HandleFunc("/fees/compare", h.CompareFees).Methods("GET")
	api.HandleFunc("/fees/recommend", h.RecommendNetwork).Methods("POST")
	api.HandleFunc("/fees/{network}", h.GetFeeReading).Methods("GET")

	// Watcher routes
	api.HandleFunc("/watcher/status", h.WatcherStatus).Methods("GET")
	api.HandleFunc("/watcher/jobs/{id}", h.EnrollJob).Methods("POST")
	api.HandleFunc("/watcher/jobs/{id}", h.WatchedJobStats).Methods("GET")
	api.HandleFunc("/watcher/jobs/{id}", h.StopWatching).Methods("DELETE")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/relayers", h.SetRelayerAuthorization).Methods("POST")
	admin.HandleFunc("/platform-fee", h.SetPlatformFee).Methods("PUT")
	admin.HandleFunc("/platform-fee", h.GetPlatformFee).Methods("GET")

	// Operational endpoints, outside the /api prefix
	s.router.HandleFunc("/status", h.Status).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) Start(port string) error {
	s.logger.Info("Starting API server", "port", port)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.cors.Handler(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured mux for tests.
func (s *Server) Router() http.Handler {
	return s.cors.Handler(s.router)
}
