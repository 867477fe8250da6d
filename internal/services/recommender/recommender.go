// Package recommender orchestrates the recommendation pipeline: eligibility
// filtering, scoring, categorization, ranking, and the retrieval-blended
// fallback when no product matches strictly.
package recommender

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/services/catalog"
	"carrier-recommendation-engine/internal/services/eligibility"
	"carrier-recommendation-engine/internal/services/portals"
	"carrier-recommendation-engine/internal/services/retriever"
	"carrier-recommendation-engine/internal/services/scoring"
)

const (
	topRecommendations = 3
	maxBudgetOptions   = 2
	maxAlternatives    = 2
)

// Service runs recommendation passes against the current catalog snapshot.
type Service struct {
	catalog  *catalog.Catalog
	filter   *eligibility.Filter
	engine   *scoring.Engine
	portals  *portals.Directory
	searcher retriever.Searcher
	topK     int
	logger   *zap.Logger
}

// New creates a recommender service. searcher may be nil; the fallback path
// then yields zero candidates.
func New(cat *catalog.Catalog, filter *eligibility.Filter, engine *scoring.Engine, dir *portals.Directory, searcher retriever.Searcher, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 20
	}
	return &Service{
		catalog:  cat,
		filter:   filter,
		engine:   engine,
		portals:  dir,
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

// Recommend runs one full recommendation pass for a profile.
func (s *Service) Recommend(ctx context.Context, profile *models.ClientProfile) (*models.RecommendationResponse, error) {
	profile.Normalize()
	if err := models.ValidateProfile(profile); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	rules := s.catalog.Rules()

	eligible := s.scoreEligible(rules, profile, requestID)

	s.logger.Info("Eligibility pass complete",
		zap.String("request_id", requestID),
		zap.Int("rules", len(rules)),
		zap.Int("eligible", len(eligible)),
	)

	response := &models.RecommendationResponse{
		RequestID:       requestID,
		Recommendations: []models.Recommendation{},
		BudgetOptions:   []models.Recommendation{},
		Alternatives:    []models.Recommendation{},
	}

	if len(eligible) == 0 {
		response.FallbackTriggered = true
		response.Recommendations = s.fallbackCandidates(ctx, profile, requestID)
		response.Explanation = renderExplanation(profile, response)
		if len(response.Recommendations) > 0 {
			best := response.Recommendations[0]
			response.BestMatch = &best
		}
		return response, nil
	}

	sortCandidates(eligible)
	s.categorize(eligible, response)
	response.Explanation = renderExplanation(profile, response)

	return response, nil
}

// scoreEligible runs the filter and scoring engine across the catalog.
// A failure while scoring one candidate is isolated to that candidate so a
// single malformed rule cannot abort the whole ranking pass.
func (s *Service) scoreEligible(rules []*models.ProductRule, profile *models.ClientProfile, requestID string) []models.Recommendation {
	eligible := make([]models.Recommendation, 0, len(rules))

	for _, rule := range rules {
		cand, ok := s.scoreCandidate(rule, profile, requestID)
		if ok {
			eligible = append(eligible, cand)
		}
	}

	return eligible
}

func (s *Service) scoreCandidate(rule *models.ProductRule, profile *models.ClientProfile, requestID string) (cand models.Recommendation, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scoring failed for candidate, skipping",
				zap.String("request_id", requestID),
				zap.String("rule", rule.Key()),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	if !s.filter.IsEligible(rule, profile) {
		return models.Recommendation{}, false
	}

	score := s.engine.Score(rule, profile)

	rationale := rule.Synopsis
	if len(rule.UniqueAdvantages) > 0 {
		rationale = fmt.Sprintf("%s • %s", rationale, rule.UniqueAdvantages[0])
	}

	return models.Recommendation{
		Carrier:          rule.Carrier,
		Product:          rule.Product,
		Type:             rule.Type,
		Score:            score,
		Rationale:        rationale,
		UnderwritingType: rule.UnderwritingType,
		FaceAmountRange:  rule.FaceRangeString(),
		IssueAges:        rule.AgeRangeString(),
		Notes:            rule.Notes,
		Riders:           rule.Riders,
		FinancialRating:  rule.FinancialRating,
		PremiumTier:      rule.PremiumTier,
		TierStructure:    rule.TierStructure,
		Portal:           s.portals.Lookup(rule.Carrier),
	}, true
}

// sortCandidates orders by score descending with a deterministic secondary
// key of carrier then product name.
func sortCandidates(cands []models.Recommendation) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].Carrier != cands[j].Carrier {
			return cands[i].Carrier < cands[j].Carrier
		}
		return cands[i].Product < cands[j].Product
	})
}

// categorize fills the best-match, budget, alternative, and top-N buckets
// from the sorted eligible set.
func (s *Service) categorize(eligible []models.Recommendation, response *models.RecommendationResponse) {
	best := eligible[0]
	response.BestMatch = &best

	n := len(eligible)
	if n > topRecommendations {
		n = topRecommendations
	}
	response.Recommendations = append(response.Recommendations, eligible[:n]...)

	for _, cand := range eligible {
		if len(response.BudgetOptions) >= maxBudgetOptions {
			break
		}
		if cand.PremiumTier == models.PremiumTierLow {
			response.BudgetOptions = append(response.BudgetOptions, cand)
		}
	}

	for _, cand := range eligible {
		if len(response.Alternatives) >= maxAlternatives {
			break
		}
		if cand.UnderwritingType.IsSimplified() || cand.UnderwritingType.IsGuaranteedIssue() {
			response.Alternatives = append(response.Alternatives, cand)
		}
	}
}
