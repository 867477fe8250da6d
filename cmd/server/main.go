// Package main provides the HTTP API server for the carrier recommendation
// engine: recommendation requests, catalog reload, portal lookups, and
// email delivery of recommendation summaries.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	"carrier-recommendation-engine/internal/config"
	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/services/catalog"
	"carrier-recommendation-engine/internal/services/database"
	"carrier-recommendation-engine/internal/services/eligibility"
	"carrier-recommendation-engine/internal/services/portals"
	"carrier-recommendation-engine/internal/services/recommender"
	"carrier-recommendation-engine/internal/services/retriever"
	s3service "carrier-recommendation-engine/internal/services/s3"
	"carrier-recommendation-engine/internal/services/scoring"
	"carrier-recommendation-engine/internal/services/ses"
	"carrier-recommendation-engine/internal/utils"
)

// Server holds all dependencies
type Server struct {
	catalog  *catalog.Catalog
	service  *recommender.Service
	portals  *portals.Directory
	notifier *ses.Service
	config   *config.Config
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NotifyRequest asks the server to email a recommendation summary.
type NotifyRequest struct {
	To      string               `json:"to"`
	Profile models.ClientProfile `json:"profile"`
}

func main() {
	// Initialize logger first
	if err := utils.InitLogger("info"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config from environment: %v", err)
		cfg = &config.Config{}
	}

	ctx := context.Background()

	// Rule catalog: S3 when a bucket is configured, local directory otherwise
	var source catalog.Source
	if cfg.RulesS3Bucket != "" {
		store, err := s3service.NewService(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize S3 rule store: %v", err)
		}
		source = catalog.NewS3Source(store, cfg.RulesS3Prefix, logger)
	} else {
		source = catalog.NewDirSource(cfg.RulesDir, logger)
	}

	cat := catalog.New(source, logger)
	if err := cat.Load(ctx); err != nil {
		log.Fatalf("Failed to load rule catalog: %v", err)
	}

	// Portal directory
	directory := portals.NewDirectory(logger)
	if cfg.PortalsJSONPath != "" {
		if err := directory.LoadFile(cfg.PortalsJSONPath); err != nil {
			log.Printf("Warning: Could not load portal links: %v", err)
		}
	}

	// Knowledge base searcher for the hybrid fallback (optional)
	var searcher retriever.Searcher
	if db, err := database.New(cfg); err != nil {
		log.Printf("Warning: Could not connect to knowledge base store: %v", err)
		log.Println("Fallback retrieval will yield no candidates")
	} else {
		embedder := retriever.NewEmbeddingClient(cfg.EmbeddingAPIURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
		searcher = retriever.NewPgVectorStore(db, embedder, logger)
		defer db.Close()
	}

	server := &Server{
		catalog: cat,
		portals: directory,
		config:  cfg,
		service: recommender.New(
			cat,
			eligibility.NewFilter(logger),
			scoring.NewEngine(),
			directory,
			searcher,
			cfg.RetrievalTopK,
			logger,
		),
	}

	// SES notifier (optional, needs a sender address)
	if cfg.SESSenderEmail != "" {
		notifier, err := ses.NewService(ctx)
		if err != nil {
			log.Printf("Warning: Could not initialize SES notifier: %v", err)
		} else {
			server.notifier = notifier
		}
	}

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("/health", server.healthHandler)
	mux.HandleFunc("/api/health", server.healthHandler)
	mux.HandleFunc("/api/recommend", server.recommendHandler)
	mux.HandleFunc("/api/reload", server.reloadHandler)
	mux.HandleFunc("/api/portals", server.portalsHandler)
	mux.HandleFunc("/api/notify", server.notifyHandler)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)

	log.Printf("Carrier Recommendation Engine API Server")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("Rules loaded: %d", cat.Len())

	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := Response{
		Success: true,
		Message: "Carrier Recommendation Engine API is running",
		Data: map[string]interface{}{
			"status":    "healthy",
			"rules":     s.catalog.Len(),
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		},
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) recommendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var profile models.ClientProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := s.service.Recommend(r.Context(), &profile)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.catalog.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Catalog reloaded with %d rules", s.catalog.Len()),
	})
}

func (s *Server) portalsHandler(w http.ResponseWriter, r *http.Request) {
	carrier := r.URL.Query().Get("carrier")
	if carrier == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Missing required query parameter: carrier",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    s.portals.Lookup(carrier),
	})
}

func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.notifier == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Email notifications are not configured",
		})
		return
	}

	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body: to and profile are required",
		})
		return
	}

	result, err := s.service.Recommend(r.Context(), &req.Profile)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	sent, err := s.notifier.SendRecommendationSummary(r.Context(), req.To, req.Profile.FirstName, result)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Summary sent (message %s)", sent.MessageID),
		Data:    result,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
