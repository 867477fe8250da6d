package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/services/scoring"
)

func giRule() *models.ProductRule {
	return &models.ProductRule{
		Carrier:          "Elco Mutual",
		Product:          "Silver Eagle",
		Type:             "Guaranteed Issue Whole Life",
		UnderwritingType: models.UnderwritingGuaranteedIssue,
		FaceAmount:       models.FaceAmountRule{Min: 2000, Max: 25000},
		IssueAges:        models.IssueAgeRule{Min: 40, Max: 80},
		TobaccoClasses:   []string{"Standard"},
		Knockouts:        models.KnockoutRule{NoHealthQuestions: true},
		FinancialRating:  "B++",
		PremiumTier:      models.PremiumTierLow,
	}
}

func impairedProfile() *models.ClientProfile {
	return &models.ClientProfile{
		Age:               65,
		State:             "TX",
		CoverageType:      "Whole Life",
		DesiredCoverage:   13500,
		MedicalConditions: map[string]bool{"diabetes": true, "copd": true},
	}
}

func TestScore_Deterministic(t *testing.T) {
	e := scoring.NewEngine()
	rule := giRule()
	profile := impairedProfile()

	first := e.Score(rule, profile)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Score(rule, profile))
	}
}

func TestScore_Bounded(t *testing.T) {
	e := scoring.NewEngine()

	profiles := []*models.ClientProfile{
		impairedProfile(),
		{Age: 30, CoverageType: "Term", DesiredCoverage: 500000},
		{Age: 80, Smoker: true, DesiredCoverage: 5000},
		{},
	}
	rules := []*models.ProductRule{
		giRule(),
		{
			Carrier:          "Legal & General America",
			Product:          "OPTerm",
			Type:             "Term Life",
			UnderwritingType: models.UnderwritingFullMedical,
			FaceAmount:       models.FaceAmountRule{Min: 100000, Max: 2000000},
			IssueAges:        models.IssueAgeRule{Min: 20, Max: 75},
			TobaccoClasses:   []string{"Non-Tobacco", "Tobacco"},
			Riders: []string{
				"Accelerated Death Benefit", "Waiver of Premium", "Child Rider",
				"Term Rider", "Chronic Illness", "Return of Premium",
			},
			FinancialRating: "A+",
			PremiumTier:     models.PremiumTierLow,
		},
		{Carrier: "X", Product: "Y"},
	}

	for _, p := range profiles {
		for _, r := range rules {
			score := e.Score(r, p)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

// A guaranteed-issue product should earn more underwriting credit from an
// impaired profile than from a clean one, all else equal.
func TestScore_GuaranteedIssueRewardsImpairedProfile(t *testing.T) {
	e := scoring.NewEngine()
	rule := giRule()

	impaired := impairedProfile()
	clean := impairedProfile()
	clean.MedicalConditions = nil

	assert.Greater(t, e.Score(rule, impaired), e.Score(rule, clean))
}

func TestScore_FullMedicalRewardsCleanProfile(t *testing.T) {
	e := scoring.NewEngine()
	rule := giRule()
	rule.UnderwritingType = models.UnderwritingFullMedical

	impaired := impairedProfile()
	clean := impairedProfile()
	clean.MedicalConditions = nil

	assert.Greater(t, e.Score(rule, clean), e.Score(rule, impaired))
}

// Desired amount closer to the band midpoint scores at least as high, with
// every other input held constant.
func TestScore_FaceCentralityMonotonic(t *testing.T) {
	e := scoring.NewEngine()
	rule := giRule() // band [2000, 25000], midpoint 13500

	at := func(coverage int64) float64 {
		p := impairedProfile()
		p.DesiredCoverage = coverage
		return e.Score(rule, p)
	}

	edge := at(2000)
	near := at(8000)
	mid := at(13500)

	assert.Greater(t, near, edge)
	assert.Greater(t, mid, near)
	assert.Equal(t, at(13500), mid)
}

func TestScore_TypeMatchOutscoresSubstitute(t *testing.T) {
	e := scoring.NewEngine()
	profile := impairedProfile()
	profile.CoverageType = "Whole Life"

	exact := giRule()
	exact.Type = "Guaranteed Issue Whole Life"

	substitute := giRule()
	substitute.Type = "Final Expense"

	mismatch := giRule()
	mismatch.Type = "Term Life"

	assert.Greater(t, e.Score(exact, profile), e.Score(substitute, profile))
	assert.Greater(t, e.Score(substitute, profile), e.Score(mismatch, profile))
}

func TestScore_RiderPreferences(t *testing.T) {
	e := scoring.NewEngine()

	rule := giRule()
	rule.Riders = []string{"Accelerated Death Benefit Rider", "Waiver of Premium"}

	allMatched := impairedProfile()
	allMatched.RiderPreferences = []string{"accelerated death benefit", "waiver of premium"}

	halfMatched := impairedProfile()
	halfMatched.RiderPreferences = []string{"accelerated death benefit", "return of premium"}

	noneMatched := impairedProfile()
	noneMatched.RiderPreferences = []string{"child rider", "return of premium"}

	assert.Greater(t, e.Score(rule, allMatched), e.Score(rule, halfMatched))
	assert.Greater(t, e.Score(rule, halfMatched), e.Score(rule, noneMatched))
}

func TestScore_TobaccoClassMatch(t *testing.T) {
	e := scoring.NewEngine()

	rule := giRule()
	rule.TobaccoClasses = []string{"Non-Tobacco"}

	smoker := impairedProfile()
	smoker.Smoker = true
	nonSmoker := impairedProfile()

	// Only the non-tobacco class is offered, so the smoker gets no credit
	assert.Greater(t, e.Score(rule, nonSmoker), e.Score(rule, smoker))

	rule.TobaccoClasses = []string{"Non-Tobacco", "Tobacco"}
	assert.Equal(t, e.Score(rule, nonSmoker), e.Score(rule, smoker))
}

func TestScore_RatingLadder(t *testing.T) {
	e := scoring.NewEngine()
	profile := impairedProfile()

	at := func(rating string) float64 {
		r := giRule()
		r.FinancialRating = rating
		return e.Score(r, profile)
	}

	assert.Greater(t, at("A+"), at("A"))
	assert.Greater(t, at("A"), at("A-"))
	assert.Greater(t, at("A-"), at("B++"))
	assert.Greater(t, at(""), at("C"))
}

func TestCentrality(t *testing.T) {
	assert.Equal(t, 1.0, scoring.Centrality(50, 0, 100))
	assert.Equal(t, 0.0, scoring.Centrality(0, 0, 100))
	assert.Equal(t, 0.0, scoring.Centrality(100, 0, 100))
	assert.InDelta(t, 0.5, scoring.Centrality(25, 0, 100), 1e-9)
	assert.Equal(t, 0.0, scoring.Centrality(200, 0, 100))

	// Degenerate band is full credit
	assert.Equal(t, 1.0, scoring.Centrality(5, 5, 5))
}
