// Package eligibility implements the rule/profile eligibility filter.
//
// Eligibility is strictly binary: a product passes only if every sub-check
// passes. Missing required profile data (age, desired amount) fails closed;
// missing optional data (height/weight) is treated as acceptable.
package eligibility

import (
	"strings"

	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
)

// Filter decides pass/fail for a (rule, profile) pair.
type Filter struct {
	logger *zap.Logger
	checks []check
}

// check is one independently failing sub-check. Any failure makes the pair
// ineligible; there is no partial credit.
type check struct {
	name string
	fn   func(*models.ProductRule, *models.ClientProfile) bool
}

// NewFilter creates an eligibility filter.
func NewFilter(logger *zap.Logger) *Filter {
	f := &Filter{logger: logger}
	f.checks = []check{
		{"prior_decline", checkPriorDecline},
		{"state", checkState},
		{"age", checkAge},
		{"face_amount", checkFaceAmount},
		{"knockouts", checkKnockouts},
		{"build", checkBuild},
		{"medications", checkMedications},
		{"driving", checkDriving},
		{"conduct", checkConduct},
	}
	return f
}

// IsEligible runs all sub-checks against the pair.
func (f *Filter) IsEligible(rule *models.ProductRule, profile *models.ClientProfile) bool {
	for _, c := range f.checks {
		if !c.fn(rule, profile) {
			f.logger.Debug("Rule failed eligibility check",
				zap.String("rule", rule.Key()),
				zap.String("check", c.name),
			)
			return false
		}
	}
	return true
}

// checkPriorDecline applies the profile-level decline exclusions: a named
// declining carrier excludes all of its products, and a generic prior
// decline excludes full-medical products without a tier fallback.
func checkPriorDecline(rule *models.ProductRule, p *models.ClientProfile) bool {
	if p.PriorDeclineCarrier != "" && carrierMatches(rule.Carrier, p.PriorDeclineCarrier) {
		return false
	}
	if p.PriorDecline && rule.UnderwritingType.IsFullMedical() && len(rule.TierStructure) == 0 {
		return false
	}
	return true
}

func carrierMatches(ruleCarrier, declined string) bool {
	a := strings.ToLower(strings.TrimSpace(ruleCarrier))
	b := strings.ToLower(strings.TrimSpace(declined))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func checkState(rule *models.ProductRule, p *models.ClientProfile) bool {
	if p.State == "" {
		return true
	}
	return rule.AvailableIn(p.State)
}

func checkAge(rule *models.ProductRule, p *models.ClientProfile) bool {
	return rule.IssueAges.Supports(p.Age)
}

func checkFaceAmount(rule *models.ProductRule, p *models.ClientProfile) bool {
	return rule.FaceAmount.Supports(p.DesiredCoverage, p.Age)
}

// checkKnockouts rejects the rule when any knockout condition's value
// matches the profile exactly. Guaranteed-issue products marked
// "no health questions" impose no knockouts.
func checkKnockouts(rule *models.ProductRule, p *models.ClientProfile) bool {
	if rule.Knockouts.NoHealthQuestions {
		return true
	}
	for _, ko := range rule.Knockouts.Conditions {
		if p.ConditionValue(ko.Condition) == ko.Value && ko.Value {
			return false
		}
		if !ko.Value && p.MedicalConditions != nil {
			// A false-valued knockout disqualifies only an explicit false entry.
			if v, present := p.MedicalConditions[ko.Condition]; present && v == ko.Value {
				return false
			}
		}
	}
	return true
}

// checkBuild computes BMI from the profile's height and weight and tests it
// against the rule's limit. Absent anthropometric data is acceptable; the
// boundary value passes.
func checkBuild(rule *models.ProductRule, p *models.ClientProfile) bool {
	if rule.Eligibility.Build == nil {
		return true
	}
	bmi, ok := p.BMI()
	if !ok {
		return true
	}
	limit, ok := rule.Eligibility.Build.MaxBMI.LimitFor(p.Gender)
	if !ok {
		return true
	}
	return bmi <= limit
}

// checkMedications rejects on any medication in the rule's rejected list,
// and enforces that conditions requiring specific medication are backed by
// at least one medication from the rule's required set.
func checkMedications(rule *models.ProductRule, p *models.ClientProfile) bool {
	medRule := rule.Eligibility.Medications
	if medRule == nil {
		return true
	}

	for _, rejected := range medRule.Rejected {
		if p.TakesMedication(rejected) {
			return false
		}
	}

	for condition, required := range medRule.RequiredForCondition {
		if !p.ConditionValue(condition) {
			continue
		}
		found := false
		for _, med := range required {
			if p.TakesMedication(med) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func checkDriving(rule *models.ProductRule, p *models.ClientProfile) bool {
	driving := rule.Eligibility.Driving
	if driving == nil {
		return true
	}
	if p.DUICountRecent > driving.MaxDUIRecent {
		return false
	}
	if driving.MaxMajorViolations != nil && p.MajorViolations > *driving.MaxMajorViolations {
		return false
	}
	return true
}

// checkConduct covers the boolean allow/disallow flags: felony lookback,
// hazardous avocation, aviation, and nicotine use without tobacco.
func checkConduct(rule *models.ProductRule, p *models.ClientProfile) bool {
	elig := rule.Eligibility

	if elig.FelonyLookbackYears > 0 && p.FelonyWithinLookback {
		return false
	}
	if elig.HazardousAvocationAllowed != nil && !*elig.HazardousAvocationAllowed && p.HazardousAvocation {
		return false
	}
	if elig.AviationAllowed != nil && !*elig.AviationAllowed && p.AviationActivity {
		return false
	}
	if elig.NicotineNonTobaccoAllowed != nil && !*elig.NicotineNonTobaccoAllowed {
		if p.NicotineUse && !p.Smoker {
			return false
		}
	}
	return true
}
