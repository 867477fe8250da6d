package recommender

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
)

// Fallback confidence floor and ceiling. The 0.9 cap keeps retrieval-only
// results always below a perfect rule-based match.
const (
	fallbackFloor      = 0.4
	fallbackSimilarity = 0.5
	fallbackCeiling    = 0.9
)

// fallbackCandidates produces retrieval-only candidates when the rule-based
// eligible set is empty. Searcher unavailability or a search failure yields
// zero candidates rather than an error.
func (s *Service) fallbackCandidates(ctx context.Context, profile *models.ClientProfile, requestID string) []models.Recommendation {
	if s.searcher == nil {
		s.logger.Warn("No similarity searcher configured, fallback yields no candidates",
			zap.String("request_id", requestID),
		)
		return []models.Recommendation{}
	}

	query := buildQuery(profile)
	results, err := s.searcher.Search(ctx, query, s.topK)
	if err != nil {
		s.logger.Error("Similarity search failed during fallback",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return []models.Recommendation{}
	}

	// Group similarities by (carrier, product) pair found in chunk metadata.
	type pair struct{ carrier, product string }
	grouped := make(map[pair][]float64)
	for _, result := range results {
		carrier := strings.TrimSpace(result.Metadata.CarrierGuess)
		if carrier == "" || strings.EqualFold(carrier, "unknown") {
			continue
		}
		product := strings.TrimSpace(result.Metadata.ProductGuess)
		if product == "" {
			product = "Product"
		}
		key := pair{carrier, product}
		grouped[key] = append(grouped[key], result.Similarity)
	}

	rationale := fmt.Sprintf("Knowledge base retrieval match (no explicit rules for %s)", profile.State)

	candidates := make([]models.Recommendation, 0, len(grouped))
	for key, similarities := range grouped {
		var sum float64
		for _, sim := range similarities {
			sum += sim
		}
		avg := sum / float64(len(similarities))

		confidence := fallbackFloor + avg*fallbackSimilarity
		if confidence > fallbackCeiling {
			confidence = fallbackCeiling
		}

		candidates = append(candidates, models.Recommendation{
			Carrier:    key.carrier,
			Product:    key.product,
			Score:      confidence * 100,
			Confidence: confidence,
			Rationale:  rationale,
			Portal:     s.portals.Lookup(key.carrier),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].Carrier != candidates[j].Carrier {
			return candidates[i].Carrier < candidates[j].Carrier
		}
		return candidates[i].Product < candidates[j].Product
	})

	if len(candidates) > topRecommendations {
		candidates = candidates[:topRecommendations]
	}

	s.logger.Info("Fallback retrieval pass complete",
		zap.String("request_id", requestID),
		zap.Int("chunks", len(results)),
		zap.Int("candidates", len(candidates)),
	)

	return candidates
}

// buildQuery encodes the profile as a natural-language retrieval query.
func buildQuery(profile *models.ClientProfile) string {
	parts := []string{
		fmt.Sprintf("Age: %d", profile.Age),
		fmt.Sprintf("State: %s", profile.State),
		fmt.Sprintf("Coverage: %s", profile.CoverageType),
	}

	if profile.DesiredCoverage > 0 {
		parts = append(parts, fmt.Sprintf("Amount: $%d", profile.DesiredCoverage))
	}
	if profile.Gender != "" {
		parts = append(parts, fmt.Sprintf("Gender: %s", profile.Gender))
	}

	smoker := "no"
	if profile.Smoker {
		smoker = "yes"
	}
	parts = append(parts, fmt.Sprintf("Smoker: %s", smoker))

	if conditions := profile.ConditionNames(); len(conditions) > 0 {
		parts = append(parts, fmt.Sprintf("Health: %s", strings.Join(conditions, ", ")))
	}
	if profile.Notes != "" {
		parts = append(parts, profile.Notes)
	}

	return strings.Join(parts, " ")
}
