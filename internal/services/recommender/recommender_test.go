package recommender_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/services/catalog"
	"carrier-recommendation-engine/internal/services/eligibility"
	"carrier-recommendation-engine/internal/services/portals"
	"carrier-recommendation-engine/internal/services/recommender"
	"carrier-recommendation-engine/internal/services/retriever"
	"carrier-recommendation-engine/internal/services/scoring"
)

const giFinalExpenseRule = `
carrier: Elco Mutual
product: Silver Eagle
type: Guaranteed Issue Final Expense
synopsis: No health questions, guaranteed acceptance.
underwriting_type: Guaranteed Issue
face_amount: {min: 2000, max: 25000}
issue_ages: {min: 40, max: 80}
knockouts: No health questions
financial_rating: B++
premium_tier: low
`

const simplifiedFinalExpenseRule = `
carrier: Mutual of Omaha
product: Living Promise
type: Final Expense Whole Life
synopsis: Simplified issue final expense with level benefit.
underwriting_type: Simplified Issue
face_amount: {min: 2000, max: 40000}
issue_ages: {min: 45, max: 85}
tobacco_classes: [Tobacco, Non-Tobacco]
knockouts:
  any:
    - dialysis: true
    - hospice_care: true
riders: [Accelerated Death Benefit]
financial_rating: A+
premium_tier: medium
unique_advantages:
  - Day-one full benefit for qualifying applicants
`

const termRule = `
carrier: Legal & General America
product: OPTerm
type: Term Life
synopsis: Competitively priced level term.
underwriting_type: Full Medical
face_amount: {min: 100000, max: 2000000}
issue_ages: {min: 20, max: 75}
tobacco_classes: [Non-Tobacco, Tobacco]
financial_rating: A+
premium_tier: low
`

// fakeSearcher is an in-memory Searcher.
type fakeSearcher struct {
	results []retriever.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]retriever.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func newService(t *testing.T, searcher retriever.Searcher, rules ...string) *recommender.Service {
	t.Helper()
	logger := zap.NewNop()

	dir := t.TempDir()
	for i, rule := range rules {
		path := filepath.Join(dir, fmt.Sprintf("rule_%d.yaml", i))
		require.NoError(t, os.WriteFile(path, []byte(rule), 0o644))
	}

	cat := catalog.New(catalog.NewDirSource(dir, logger), logger)
	require.NoError(t, cat.Load(context.Background()))

	return recommender.New(
		cat,
		eligibility.NewFilter(logger),
		scoring.NewEngine(),
		portals.NewDirectory(logger),
		searcher,
		20,
		logger,
	)
}

func TestRecommend_GuaranteedIssueForImpairedSenior(t *testing.T) {
	svc := newService(t, nil, giFinalExpenseRule, simplifiedFinalExpenseRule, termRule)

	profile := &models.ClientProfile{
		Age:             65,
		State:           "TX",
		CoverageType:    "Final Expense",
		DesiredCoverage: 15000,
		MedicalConditions: map[string]bool{
			"diabetes": true,
		},
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	assert.False(t, resp.FallbackTriggered)
	assert.NotEmpty(t, resp.RequestID)
	require.NotEmpty(t, resp.Recommendations)
	require.NotNil(t, resp.BestMatch)

	// The term product cannot cover face amounts this small
	for _, rec := range resp.Recommendations {
		assert.NotEqual(t, "OPTerm", rec.Product)
	}

	// Guaranteed issue leads for an impaired senior
	assert.Equal(t, "Elco Mutual", resp.BestMatch.Carrier)
	assert.Equal(t, "Silver Eagle", resp.BestMatch.Product)
	assert.Greater(t, resp.BestMatch.Score, 0.0)
	assert.NotEmpty(t, resp.Explanation)
}

func TestRecommend_OrderingAndBestMatch(t *testing.T) {
	svc := newService(t, nil, giFinalExpenseRule, simplifiedFinalExpenseRule)

	profile := &models.ClientProfile{
		Age:             60,
		State:           "TX",
		CoverageType:    "Final Expense",
		DesiredCoverage: 10000,
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, resp.BestMatch)
	require.GreaterOrEqual(t, len(resp.Recommendations), 2)

	assert.Equal(t, *resp.BestMatch, resp.Recommendations[0])
	for i := 1; i < len(resp.Recommendations); i++ {
		assert.GreaterOrEqual(t, resp.Recommendations[i-1].Score, resp.Recommendations[i].Score)
	}
}

func TestRecommend_Categorization(t *testing.T) {
	svc := newService(t, nil, giFinalExpenseRule, simplifiedFinalExpenseRule, termRule)

	profile := &models.ClientProfile{
		Age:             60,
		State:           "TX",
		CoverageType:    "Final Expense",
		DesiredCoverage: 12000,
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	for _, rec := range resp.BudgetOptions {
		assert.Equal(t, models.PremiumTierLow, rec.PremiumTier)
	}
	assert.LessOrEqual(t, len(resp.BudgetOptions), 2)

	for _, rec := range resp.Alternatives {
		easier := rec.UnderwritingType.IsSimplified() || rec.UnderwritingType.IsGuaranteedIssue()
		assert.True(t, easier, "alternatives should be easier-underwriting products")
	}
	assert.LessOrEqual(t, len(resp.Alternatives), 2)
}

func TestRecommend_PriorDeclineCarrierExcluded(t *testing.T) {
	svc := newService(t, nil, giFinalExpenseRule, simplifiedFinalExpenseRule)

	profile := &models.ClientProfile{
		Age:                 65,
		State:               "TX",
		CoverageType:        "Final Expense",
		DesiredCoverage:     15000,
		PriorDeclineCarrier: "Mutual of Omaha",
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	for _, rec := range resp.Recommendations {
		assert.NotEqual(t, "Mutual of Omaha", rec.Carrier)
	}
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "Elco Mutual", resp.BestMatch.Carrier)
}

func TestRecommend_EmptyCatalogWithoutSearcher(t *testing.T) {
	svc := newService(t, nil)

	profile := &models.ClientProfile{
		Age:             50,
		State:           "TX",
		CoverageType:    "Term",
		DesiredCoverage: 250000,
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	assert.True(t, resp.FallbackTriggered)
	assert.Empty(t, resp.Recommendations)
	assert.Nil(t, resp.BestMatch)
	assert.NotEmpty(t, resp.Explanation)
}

func TestRecommend_FallbackFromRetrieval(t *testing.T) {
	searcher := &fakeSearcher{results: []retriever.Result{
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "Transamerica", ProductGuess: "Trendsetter"}, Similarity: 0.8},
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "Transamerica", ProductGuess: "Trendsetter"}, Similarity: 0.6},
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "SBLI", ProductGuess: "Level Term"}, Similarity: 0.5},
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "unknown", ProductGuess: "X"}, Similarity: 0.9},
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "", ProductGuess: "Y"}, Similarity: 0.9},
	}}

	// Catalog has one product whose age band excludes the applicant
	svc := newService(t, searcher, giFinalExpenseRule)

	profile := &models.ClientProfile{
		Age:             30,
		State:           "TX",
		CoverageType:    "Term",
		DesiredCoverage: 250000,
		Smoker:          true,
		MedicalConditions: map[string]bool{
			"diabetes": true,
		},
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	assert.True(t, resp.FallbackTriggered)
	require.Len(t, resp.Recommendations, 2, "unknown and empty carriers are dropped")

	// Highest average similarity ranks first: Transamerica avg 0.7 over SBLI 0.5
	assert.Equal(t, "Transamerica", resp.Recommendations[0].Carrier)
	assert.Equal(t, "SBLI", resp.Recommendations[1].Carrier)

	for _, rec := range resp.Recommendations {
		assert.Greater(t, rec.Confidence, 0.0)
		assert.LessOrEqual(t, rec.Confidence, 0.9)
		assert.InDelta(t, rec.Confidence*100, rec.Score, 1e-9)
	}

	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, *resp.BestMatch, resp.Recommendations[0])

	// The retrieval query carries the profile facts
	require.Len(t, searcher.queries, 1)
	assert.Contains(t, searcher.queries[0], "Age: 30")
	assert.Contains(t, searcher.queries[0], "State: TX")
	assert.Contains(t, searcher.queries[0], "Smoker: yes")
	assert.Contains(t, searcher.queries[0], "diabetes")
}

func TestRecommend_FallbackConfidenceCeiling(t *testing.T) {
	searcher := &fakeSearcher{results: []retriever.Result{
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "Transamerica"}, Similarity: 1.0},
		{Metadata: retriever.ChunkMetadata{CarrierGuess: "Transamerica"}, Similarity: 1.0},
	}}
	svc := newService(t, searcher)

	profile := &models.ClientProfile{Age: 30, State: "TX", DesiredCoverage: 100000}
	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 0.9, resp.Recommendations[0].Confidence)
	assert.Equal(t, 90.0, resp.Recommendations[0].Score)
	assert.Equal(t, "Product", resp.Recommendations[0].Product)
}

func TestRecommend_FallbackSearchErrorYieldsEmpty(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	svc := newService(t, searcher)

	profile := &models.ClientProfile{Age: 30, State: "TX", DesiredCoverage: 100000}
	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)

	assert.True(t, resp.FallbackTriggered)
	assert.Empty(t, resp.Recommendations)
	assert.Nil(t, resp.BestMatch)
}

func TestRecommend_InvalidProfile(t *testing.T) {
	svc := newService(t, nil, giFinalExpenseRule)

	_, err := svc.Recommend(context.Background(), &models.ClientProfile{Age: 130})
	assert.ErrorIs(t, err, models.ErrInvalidAge)

	_, err = svc.Recommend(context.Background(), &models.ClientProfile{Age: 40, DesiredCoverage: -5})
	assert.ErrorIs(t, err, models.ErrNegativeCoverage)
}

func TestRecommend_RationaleCarriesUniqueAdvantage(t *testing.T) {
	svc := newService(t, nil, simplifiedFinalExpenseRule)

	profile := &models.ClientProfile{
		Age:             60,
		State:           "TX",
		CoverageType:    "Final Expense",
		DesiredCoverage: 20000,
	}

	resp, err := svc.Recommend(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, resp.BestMatch)

	assert.Contains(t, resp.BestMatch.Rationale, "Simplified issue final expense")
	assert.Contains(t, resp.BestMatch.Rationale, "Day-one full benefit")
}
