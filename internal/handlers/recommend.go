// Package handlers provides API Gateway handlers for the carrier
// recommendation engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/services/recommender"
	"carrier-recommendation-engine/internal/utils"
)

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	service *recommender.Service
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(service *recommender.Service) *RecommendHandler {
	return &RecommendHandler{service: service}
}

// Handle processes API Gateway recommendation requests.
func (h *RecommendHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()

	// CORS headers
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "POST,OPTIONS",
		"Content-Type":                 "application/json",
	}

	// Handle CORS preflight
	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	var profile models.ClientProfile
	if err := json.Unmarshal([]byte(request.Body), &profile); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}

	result, err := h.service.Recommend(ctx, &profile)
	if err != nil {
		logger.Error("Recommendation pass failed", zap.Error(err))
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	body, err := json.Marshal(result)
	if err != nil {
		logger.Error("Failed to marshal response", zap.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Internal error generating recommendations")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse builds a JSON error response.
func errorResponse(headers map[string]string, status int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
