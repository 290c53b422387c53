// Package api provides the HTTP API server for LifeTrack.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lifetrack/lifetrack/internal/analytics"
	"github.com/lifetrack/lifetrack/internal/anomaly"
	"github.com/lifetrack/lifetrack/internal/config"
	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/logging"
	"github.com/lifetrack/lifetrack/internal/recommend"
	"github.com/lifetrack/lifetrack/internal/storage"
)

// defaultUser scopes requests that carry no user_id query parameter.
// The server is single-tenant by default.
const defaultUser = "default"

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	log        *logging.Logger

	engine config.EngineConfig

	// Stores
	taskStore         *storage.TaskStore
	habitStore        *storage.HabitStore
	transactionStore  *storage.TransactionStore
	productivityStore *storage.ProductivityStore
	budgetStore       *storage.BudgetStore

	// Engine components
	forecaster    *analytics.Forecaster
	detector      *anomaly.Detector
	priorityModel *recommend.PriorityModel // nil until trained
}

// Config for the server
type Config struct {
	Port   int
	Host   string
	DB     *storage.DB
	Engine config.EngineConfig

	// Optional overrides, mostly for tests
	Forecaster    *analytics.Forecaster
	Detector      *anomaly.Detector
	PriorityModel *recommend.PriorityModel
}

// New creates a new API server
func New(cfg Config) *Server {
	forecaster := cfg.Forecaster
	if forecaster == nil {
		forecaster = analytics.NewForecaster(analytics.NewSeasonalEstimator(), cfg.Engine.ForecastHistory)
	}

	detector := cfg.Detector
	if detector == nil {
		detector = anomaly.New(anomaly.NewIsolationForest(cfg.Engine.AnomalyContamination), anomaly.Config{
			Contamination:       cfg.Engine.AnomalyContamination,
			StreakBreakDays:     cfg.Engine.StreakBreakDays,
			StreakBreakHighDays: cfg.Engine.StreakBreakHighDays,
			RateDropThreshold:   cfg.Engine.RateDropThreshold,
		})
	}

	s := &Server{
		log:               logging.WithField("component", "api"),
		engine:            cfg.Engine,
		taskStore:         storage.NewTaskStore(cfg.DB),
		habitStore:        storage.NewHabitStore(cfg.DB),
		transactionStore:  storage.NewTransactionStore(cfg.DB),
		productivityStore: storage.NewProductivityStore(cfg.DB),
		budgetStore:       storage.NewBudgetStore(cfg.DB),
		forecaster:        forecaster,
		detector:          detector,
		priorityModel:     cfg.PriorityModel,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Records
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks/{taskID}", s.handleGetTask)
		r.Put("/tasks/{taskID}", s.handleUpdateTask)
		r.Delete("/tasks/{taskID}", s.handleDeleteTask)

		r.Get("/habits", s.handleListHabits)
		r.Post("/habits", s.handleCreateHabit)
		r.Post("/habits/{habitID}/complete", s.handleCompleteHabit)
		r.Get("/habits/{habitID}/completions", s.handleListCompletions)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)

		r.Post("/productivity", s.handleUpsertProductivity)
		r.Get("/productivity", s.handleListProductivity)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleCreateBudget)
		r.Delete("/budgets/{budgetID}", s.handleDeleteBudget)

		// Insights
		r.Get("/insights/{period}", s.handleGetInsights)

		// Analytics
		r.Get("/trends/tasks", s.handleTaskTrends)
		r.Get("/trends/expenses", s.handleExpenseTrends)
		r.Get("/trends/habits", s.handleHabitTrends)
		r.Get("/series/productivity", s.handleProductivitySeries)
		r.Get("/series/expenses", s.handleExpenseSeries)
		r.Get("/stats/correlation", s.handleCorrelation)
		r.Get("/stats/regression", s.handleRegression)
		r.Get("/stats/categories", s.handleCategoryDistribution)

		// Forecasts
		r.Get("/forecast/productivity", s.handleForecastProductivity)
		r.Get("/forecast/expenses", s.handleForecastExpenses)

		// Anomalies
		r.Get("/anomalies/expenses", s.handleExpenseAnomalies)
		r.Get("/anomalies/habits", s.handleHabitAnomalies)

		// Optimization
		r.Get("/recommendations/tasks", s.handleRecommendTasks)
		r.Get("/recommendations/habits", s.handleRecommendHabits)
		r.Get("/schedule/day", s.handleScheduleDay)
		r.Get("/schedule/order", s.handleOptimizeOrder)
		r.Get("/schedule/timing/{taskID}", s.handleSuggestTiming)
		r.Get("/budgets/allocations", s.handleSuggestAllocations)
		r.Get("/budgets/{budgetID}/status", s.handleBudgetStatus)
		r.Get("/budgets/{budgetID}/optimize", s.handleOptimizeBudget)
		r.Post("/priority/predict", s.handlePredictPriority)
	})

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("API server starting on http://%s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps engine and store errors to HTTP statuses
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrRecordNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidHorizon),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrUnknownPeriod),
		errors.Is(err, core.ErrMissingRequired),
		errors.Is(err, core.ErrInsufficientSamples):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// userID resolves the request's user scope
func userID(r *http.Request) string {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	return defaultUser
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
