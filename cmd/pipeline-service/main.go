package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/modelpilot-ai/platform/pkg/common/config"
	"github.com/modelpilot-ai/platform/pkg/common/database"
	"github.com/modelpilot-ai/platform/pkg/common/logger"
	"github.com/modelpilot-ai/platform/pkg/evaluation"
	"github.com/modelpilot-ai/platform/pkg/events"
	"github.com/modelpilot-ai/platform/pkg/orchestrator"
	"github.com/modelpilot-ai/platform/pkg/reasoning"
	"github.com/modelpilot-ai/platform/pkg/selection"
	"github.com/modelpilot-ai/platform/pkg/storage"
	"github.com/modelpilot-ai/platform/pkg/trainer"
)

type PipelineService struct {
	orch *orchestrator.Orchestrator
}

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	store := storage.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate storage schema")
	}

	redisClient := database.ConnectRedis(cfg)
	cache := storage.NewStateCache(redisClient, cfg.StateCacheTTL)

	mirror := events.NewKafkaMirror(cfg)
	broadcaster := events.NewBroadcaster(cfg.SubscriberBuffer, mirror)

	rules, err := selection.LoadRules(cfg.SelectionRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load selection rules, using defaults")
	}

	orch := orchestrator.New(
		store,
		cache,
		broadcaster,
		reasoning.NewClient(cfg),
		selection.NewEngine(rules),
		trainer.NewClient(cfg),
		orchestrator.Options{
			PollInterval: cfg.TrainerPollEvery,
			PollTimeout:  cfg.TrainerPollTimeout,
		},
	)
	service := &PipelineService{orch: orch}

	rootCtx, stopBridge := context.WithCancel(context.Background())
	if cfg.KafkaBridgeMode {
		bridge := events.NewBridge(cfg, broadcaster)
		go func() {
			if err := bridge.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithError(err).Error("Kafka bridge stopped")
			}
		}()
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/api/v1/pipelines", service.handleStartPipeline).Methods("POST")
	router.HandleFunc("/api/v1/pipelines/{id}", service.handleGetPipeline).Methods("GET")
	router.HandleFunc("/api/v1/pipelines/{id}/cancel", service.handleCancelPipeline).Methods("POST")
	router.HandleFunc("/api/v1/pipelines/{id}/decisions", service.handleListDecisions).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Pipeline Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Pipeline Service...")
	stopBridge()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if err := mirror.Close(); err != nil {
		logger.Log.WithError(err).Error("Failed to close kafka writer")
	}
	if err := database.CloseRedis(redisClient); err != nil {
		logger.Log.WithError(err).Error("Failed to close redis client")
	}
	if err := database.ClosePostgres(db); err != nil {
		logger.Log.WithError(err).Error("Failed to close postgres connection")
	}

	logger.Log.Info("Pipeline Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

type startPipelineRequest struct {
	ProblemText  string                          `json:"problem_text"`
	Rows         []map[string]interface{}        `json:"rows"`
	DatasetURI   string                          `json:"dataset_uri"`
	TargetColumn string                          `json:"target_column,omitempty"`
	SizeBytes    int64                           `json:"size_bytes,omitempty"`
	ModalityHint string                          `json:"modality_hint,omitempty"`
	Preferences  selection.Preferences           `json:"preferences"`
	Thresholds   map[string]evaluation.Threshold `json:"thresholds,omitempty"`
}

func (s *PipelineService) handleStartPipeline(w http.ResponseWriter, r *http.Request) {
	var req startPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.ProblemText == "" {
		http.Error(w, "problem_text is required", http.StatusBadRequest)
		return
	}
	if req.DatasetURI == "" {
		http.Error(w, "dataset_uri is required", http.StatusBadRequest)
		return
	}

	projectID := uuid.New()
	start := orchestrator.StartRequest{
		ProjectID:    projectID,
		ProblemText:  req.ProblemText,
		Rows:         req.Rows,
		DatasetURI:   req.DatasetURI,
		TargetColumn: req.TargetColumn,
		SizeBytes:    req.SizeBytes,
		ModalityHint: req.ModalityHint,
		Preferences:  req.Preferences,
		Thresholds:   req.Thresholds,
	}

	// The pipeline runs in the background; fatal stage errors have already
	// been recorded on the state by the orchestrator, so they are only
	// logged here. No retry.
	go func() {
		if err := s.orch.Run(context.Background(), start); err != nil {
			logger.WithProject(projectID.String()).WithError(err).Error("Pipeline run finished with error")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"project_id": projectID.String(),
		"stage":      "analyzing",
	})
}

func (s *PipelineService) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}

	state, err := s.orch.GetState(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			http.Error(w, "Pipeline not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

func (s *PipelineService) handleCancelPipeline(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}

	accepted := s.orch.Cancel(projectID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"project_id": projectID.String(),
		"accepted":   accepted,
	})
}

func (s *PipelineService) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}

	decisions, err := s.orch.ListDecisions(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decisions)
}
