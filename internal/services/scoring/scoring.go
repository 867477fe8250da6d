// Package scoring computes the deterministic fitness score for an eligible
// (rule, profile) pair.
//
// The score is a pure function of its two inputs: five independently capped
// dimensions summing to at most 100. Identical inputs always yield the
// identical score.
package scoring

import (
	"math"
	"strings"

	"carrier-recommendation-engine/internal/models"
)

// Per-dimension caps. They sum to 100, so the total needs no further
// normalization.
const (
	MaxUnderwritingFit = 30.0
	MaxProductFit      = 25.0
	MaxRiderFit        = 20.0
	MaxFaceFit         = 15.0
	MaxCarrierQuality  = 10.0
)

// Underwriting-fit components.
const (
	maxHealthFit       = 10.0
	maxBuildLeniency   = 8.0
	maxTobaccoMatch    = 7.0
	maxMedSpecificity  = 5.0
	lenientBMIHeadroom = 5.0
	lenientBMILimit    = 40.0
)

// Product-fit components.
const (
	typeMatchCredit     = 20.0
	finalExpenseCredit  = 12.0
	multiDurationBonus  = 5.0
)

// Rider-fit components.
const (
	riderBreadthPerRider = 3.0
	riderBreadthCap      = 15.0
	riderNeutralCredit   = 8.0
)

// Face-fit components.
const (
	faceCentralityCredit = 12.0
	lowTierBonus         = 3.0
	mediumTierBonus      = 1.0
)

// Carrier-quality components.
const (
	tierStructureBonus  = 2.0
	ageCentralityCredit = 3.0
	unknownRatingCredit = 2.5
)

// Engine computes product fitness scores.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the 0-100 fitness score for an eligible pair. Eligibility
// is decided separately; Score assumes the pair already passed.
func (e *Engine) Score(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	score := e.scoreUnderwritingFit(rule, profile) +
		e.scoreProductFit(rule, profile) +
		e.scoreRiderFit(rule, profile) +
		e.scoreFaceFit(rule, profile) +
		e.scoreCarrierQuality(rule, profile)

	return math.Min(100, math.Max(0, score))
}

// scoreUnderwritingFit rewards placements that are easy to write for this
// profile: lenient build limits, screening rigor matched to health history,
// a supported tobacco class, and flat medication rules over
// condition-specific ones.
func (e *Engine) scoreUnderwritingFit(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	score := healthFit(rule.UnderwritingType, profile.HasConditions())
	score += buildLeniency(rule, profile)
	score += tobaccoMatch(rule.TobaccoClasses, profile.Smoker)
	score += medicationSpecificity(rule.Eligibility.Medications)
	return math.Min(MaxUnderwritingFit, score)
}

// healthFit matches screening rigor to the presence of health conditions.
// Guaranteed issue is worth the most for impaired profiles, full medical
// for clean ones, simplified a flat middle credit.
func healthFit(uw models.UnderwritingType, hasConditions bool) float64 {
	switch {
	case uw.IsGuaranteedIssue():
		if hasConditions {
			return maxHealthFit
		}
		return 4
	case uw.IsSimplified():
		return 7
	case uw.IsFullMedical():
		if !hasConditions {
			return maxHealthFit
		}
		return 5
	}
	return 0
}

// buildLeniency gives full credit when the rule imposes no build limit or
// the profile clears it with comfortable headroom, partial credit for a
// tight pass.
func buildLeniency(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	if rule.Eligibility.Build == nil {
		return maxBuildLeniency
	}
	limit, ok := rule.Eligibility.Build.MaxBMI.LimitFor(profile.Gender)
	if !ok {
		return maxBuildLeniency
	}

	bmi, ok := profile.BMI()
	if !ok {
		// No anthropometric data: judge the rule's leniency on its own.
		if limit >= lenientBMILimit {
			return maxBuildLeniency
		}
		return maxBuildLeniency / 2
	}

	if limit-bmi >= lenientBMIHeadroom {
		return maxBuildLeniency
	}
	return maxBuildLeniency / 2
}

// tobaccoMatch gives credit when the rule offers a rate class matching the
// profile's tobacco status. "Non-tobacco" class names contain "tobacco", so
// the non-prefix must be checked first.
func tobaccoMatch(classes []string, smoker bool) float64 {
	var hasTobacco, hasNonTobacco bool
	for _, class := range classes {
		c := strings.ToLower(class)
		switch {
		case strings.Contains(c, "non-tobacco") || strings.Contains(c, "nontobacco") || strings.Contains(c, "non tobacco"):
			hasNonTobacco = true
		case strings.Contains(c, "tobacco"):
			hasTobacco = true
		}
	}
	if smoker && hasTobacco {
		return maxTobaccoMatch
	}
	if !smoker && hasNonTobacco {
		return maxTobaccoMatch
	}
	return 0
}

// medicationSpecificity scores flat medication rules above
// condition-specific ones: a simple rejected list is an easier placement
// than per-condition required-medication proof.
func medicationSpecificity(medRule *models.MedicationRule) float64 {
	switch {
	case medRule == nil:
		return maxMedSpecificity
	case len(medRule.RequiredForCondition) > 0:
		return 2
	default:
		return 4
	}
}

// scoreProductFit rewards a product type matching the requested coverage.
// Final expense satisfies a whole-life request at fixed partial credit, and
// multiple named term durations earn a small bonus.
func (e *Engine) scoreProductFit(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	var score float64

	desired := strings.ToLower(strings.TrimSpace(profile.CoverageType))
	ruleType := strings.ToLower(rule.Type)

	switch {
	case desired != "" && strings.Contains(ruleType, desired):
		score = typeMatchCredit
	case strings.Contains(ruleType, "final expense") && (desired == "whole life" || desired == "wl"):
		score = finalExpenseCredit
	}

	if len(rule.IssueAges.ByDuration) >= 2 {
		score += multiDurationBonus
	}

	return math.Min(MaxProductFit, score)
}

// scoreRiderFit scores requested riders by coverage fraction; with no
// preference stated it rewards breadth up to a cap, and rules with no rider
// data get a flat neutral credit.
func (e *Engine) scoreRiderFit(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	if len(profile.RiderPreferences) > 0 {
		matched := 0
		for _, want := range profile.RiderPreferences {
			if riderOffered(rule.Riders, want) {
				matched++
			}
		}
		return MaxRiderFit * float64(matched) / float64(len(profile.RiderPreferences))
	}

	if len(rule.Riders) == 0 {
		return riderNeutralCredit
	}
	return math.Min(riderBreadthCap, riderBreadthPerRider*float64(len(rule.Riders)))
}

func riderOffered(offered []string, want string) bool {
	w := strings.ToLower(strings.TrimSpace(want))
	if w == "" {
		return false
	}
	for _, rider := range offered {
		r := strings.ToLower(rider)
		if strings.Contains(r, w) || strings.Contains(w, r) {
			return true
		}
	}
	return false
}

// scoreFaceFit rewards a desired amount near the middle of the applicable
// face band, plus a flat bonus for a low or medium declared premium tier.
func (e *Engine) scoreFaceFit(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	var score float64

	minFace, maxFace, ok := rule.FaceAmount.BandFor(profile.Age)
	if ok && profile.DesiredCoverage > 0 {
		if maxFace <= 0 {
			// Unbounded band has no midpoint to measure against.
			score = faceCentralityCredit / 2
		} else {
			score = faceCentralityCredit * Centrality(float64(profile.DesiredCoverage), float64(minFace), float64(maxFace))
		}
	}

	switch rule.PremiumTier {
	case models.PremiumTierLow:
		score += lowTierBonus
	case models.PremiumTierMedium:
		score += mediumTierBonus
	}

	return math.Min(MaxFaceFit, score)
}

// scoreCarrierQuality maps the financial-strength rating to a fixed credit
// ladder, adds a flat bonus for a multi-tier fallback structure, and a
// small bonus for age centrality within the issue-age band.
func (e *Engine) scoreCarrierQuality(rule *models.ProductRule, profile *models.ClientProfile) float64 {
	score := ratingCredit(rule.FinancialRating)

	if len(rule.TierStructure) > 0 {
		score += tierStructureBonus
	}

	if profile.Age > 0 && rule.IssueAges.Max > rule.IssueAges.Min {
		lo, hi := float64(rule.IssueAges.Min), float64(rule.IssueAges.Max)
		if lo <= float64(profile.Age) && float64(profile.Age) <= hi {
			score += ageCentralityCredit * Centrality(float64(profile.Age), lo, hi)
		}
	} else if profile.Age > 0 && rule.IssueAges.Max == rule.IssueAges.Min && rule.IssueAges.Supports(profile.Age) {
		score += ageCentralityCredit
	}

	return math.Min(MaxCarrierQuality, score)
}

// ratingCredit is the fixed financial-strength credit ladder. An unknown
// rating gets a flat mid credit.
func ratingCredit(rating string) float64 {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "A++", "A+":
		return 5
	case "A":
		return 4
	case "A-":
		return 3
	case "B++", "B+":
		return 2
	case "":
		return unknownRatingCredit
	default:
		return 1
	}
}

// Centrality measures how close v sits to the midpoint of [lo, hi] on a
// 0-1 scale: 1 at the midpoint, 0 at either bound. A degenerate band is
// full credit.
func Centrality(v, lo, hi float64) float64 {
	halfWidth := (hi - lo) / 2
	if halfWidth <= 0 {
		return 1
	}
	mid := (lo + hi) / 2
	c := 1 - math.Abs(v-mid)/halfWidth
	if c < 0 {
		return 0
	}
	return c
}
