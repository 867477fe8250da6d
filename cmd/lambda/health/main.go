// Health Check Lambda entry point
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"carrier-recommendation-engine/internal/handlers"
	"carrier-recommendation-engine/internal/utils"
)

func main() {
	// Initialize logger
	_ = utils.InitLogger("info")
	defer utils.Sync()

	// Create handler
	handler := handlers.NewHealthHandler()

	// Start Lambda
	lambda.Start(handler.Handle)
}
