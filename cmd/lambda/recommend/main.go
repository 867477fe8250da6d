// Recommendation Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"carrier-recommendation-engine/internal/config"
	"carrier-recommendation-engine/internal/handlers"
	"carrier-recommendation-engine/internal/services/catalog"
	"carrier-recommendation-engine/internal/services/eligibility"
	"carrier-recommendation-engine/internal/services/portals"
	"carrier-recommendation-engine/internal/services/recommender"
	s3service "carrier-recommendation-engine/internal/services/s3"
	"carrier-recommendation-engine/internal/services/scoring"
	"carrier-recommendation-engine/internal/utils"
)

func main() {
	// Initialize logger
	_ = utils.InitLogger("info")
	defer utils.Sync()
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// The Lambda deployment reads rules from S3; a local directory is only
	// used when no bucket is configured.
	var source catalog.Source
	if cfg.RulesS3Bucket != "" {
		store, err := s3service.NewService(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		source = catalog.NewS3Source(store, cfg.RulesS3Prefix, logger)
	} else {
		source = catalog.NewDirSource(cfg.RulesDir, logger)
	}

	cat := catalog.New(source, logger)
	if err := cat.Load(ctx); err != nil {
		log.Fatalf("Failed to load rule catalog: %v", err)
	}

	directory := portals.NewDirectory(logger)
	if cfg.PortalsJSONPath != "" {
		if err := directory.LoadFile(cfg.PortalsJSONPath); err != nil {
			logger.Warn("Could not load portal links file")
		}
	}

	service := recommender.New(
		cat,
		eligibility.NewFilter(logger),
		scoring.NewEngine(),
		directory,
		nil, // fallback retrieval is served by the HTTP deployment
		cfg.RetrievalTopK,
		logger,
	)

	handler := handlers.NewRecommendHandler(service)

	// Start Lambda
	lambda.Start(handler.Handle)
}
