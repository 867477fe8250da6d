// Package models defines the data structures for the carrier recommendation engine.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnderwritingType represents the rigor of health screening for a product.
type UnderwritingType string

const (
	UnderwritingGuaranteedIssue UnderwritingType = "Guaranteed Issue"
	UnderwritingSimplified      UnderwritingType = "Simplified Issue"
	UnderwritingFullMedical     UnderwritingType = "Full Medical"
)

// IsGuaranteedIssue reports whether the type is a guaranteed-issue variant.
// Rule files carry free-form labels like "Guaranteed Issue Whole Life", so
// matching is by keyword rather than exact equality.
func (u UnderwritingType) IsGuaranteedIssue() bool {
	return strings.Contains(string(u), "Guaranteed")
}

// IsSimplified reports whether the type is a simplified-issue variant.
func (u UnderwritingType) IsSimplified() bool {
	return strings.Contains(string(u), "Simplified")
}

// IsFullMedical reports whether the type requires full medical underwriting.
func (u UnderwritingType) IsFullMedical() bool {
	return strings.Contains(string(u), "Full Medical")
}

// PremiumTier is a coarse budget classification attached to a product.
type PremiumTier string

const (
	PremiumTierLow    PremiumTier = "low"
	PremiumTierMedium PremiumTier = "medium"
	PremiumTierHigh   PremiumTier = "high"
)

// FaceBand is a face-amount range that applies to a specific issue-age range.
type FaceBand struct {
	MinAge  int
	MaxAge  int
	MinFace int64
	MaxFace int64
}

// FaceAmountRule holds the face-amount bounds for a product, either flat
// or banded by issue age.
type FaceAmountRule struct {
	Min   int64
	Max   int64
	ByAge []FaceBand
}

// faceAmountDoc is the raw YAML shape of a face_amount block. Age bands are
// keyed by strings like "18_45" mapping to [min, max] pairs.
type faceAmountDoc struct {
	Min   int64             `yaml:"min"`
	Max   int64             `yaml:"max"`
	ByAge map[string][]int64 `yaml:"by_age"`
}

// UnmarshalYAML parses the schema-loose rule-file form into typed bands.
func (f *FaceAmountRule) UnmarshalYAML(value *yaml.Node) error {
	var doc faceAmountDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}

	f.Min = doc.Min
	f.Max = doc.Max
	f.ByAge = nil

	for key, bounds := range doc.ByAge {
		minAge, maxAge, err := parseAgeRangeKey(key)
		if err != nil {
			return fmt.Errorf("face_amount by_age key %q: %w", key, err)
		}
		if len(bounds) != 2 {
			return fmt.Errorf("face_amount by_age %q: expected [min, max], got %d values", key, len(bounds))
		}
		f.ByAge = append(f.ByAge, FaceBand{
			MinAge:  minAge,
			MaxAge:  maxAge,
			MinFace: bounds[0],
			MaxFace: bounds[1],
		})
	}

	sort.Slice(f.ByAge, func(i, j int) bool { return f.ByAge[i].MinAge < f.ByAge[j].MinAge })
	return nil
}

// BandFor returns the face-amount bounds applicable to the given age.
// With age bands it picks the band covering the age; otherwise the flat
// bounds apply. ok is false when age bands exist but none covers the age.
func (f *FaceAmountRule) BandFor(age int) (minFace, maxFace int64, ok bool) {
	if len(f.ByAge) == 0 {
		return f.Min, f.Max, true
	}
	for _, band := range f.ByAge {
		if band.MinAge <= age && age <= band.MaxAge {
			return band.MinFace, band.MaxFace, true
		}
	}
	return 0, 0, false
}

// Supports reports whether the desired face amount is acceptable for the
// given age. A zero amount always fails.
func (f *FaceAmountRule) Supports(face int64, age int) bool {
	if face <= 0 {
		return false
	}
	minFace, maxFace, ok := f.BandFor(age)
	if !ok {
		return false
	}
	if face < minFace {
		return false
	}
	if maxFace > 0 && face > maxFace {
		return false
	}
	return true
}

// DurationBand is an issue-age range for a specific term duration.
type DurationBand struct {
	Duration string
	MinAge   int
	MaxAge   int
}

// IssueAgeRule holds the issue-age bounds for a product, either flat or
// banded by term duration.
type IssueAgeRule struct {
	Min        int
	Max        int
	ByDuration []DurationBand
}

type issueAgeDoc struct {
	Min        int              `yaml:"min"`
	Max        int              `yaml:"max"`
	ByDuration map[string][]int `yaml:"by_duration"`
}

// UnmarshalYAML parses the rule-file form. Duration bands are keyed by
// strings like "10_year" mapping to [min_age, max_age] pairs.
func (r *IssueAgeRule) UnmarshalYAML(value *yaml.Node) error {
	var doc issueAgeDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}

	r.Min = doc.Min
	r.Max = doc.Max
	r.ByDuration = nil

	for key, bounds := range doc.ByDuration {
		if len(bounds) != 2 {
			return fmt.Errorf("issue_ages by_duration %q: expected [min, max], got %d values", key, len(bounds))
		}
		r.ByDuration = append(r.ByDuration, DurationBand{
			Duration: key,
			MinAge:   bounds[0],
			MaxAge:   bounds[1],
		})
	}

	sort.Slice(r.ByDuration, func(i, j int) bool { return r.ByDuration[i].Duration < r.ByDuration[j].Duration })
	return nil
}

// Supports reports whether the age is issuable. With duration bands the age
// must fall inside at least one band; otherwise flat bounds apply. A zero
// age always fails.
func (r *IssueAgeRule) Supports(age int) bool {
	if age <= 0 {
		return false
	}
	if len(r.ByDuration) > 0 {
		for _, band := range r.ByDuration {
			if band.MinAge <= age && age <= band.MaxAge {
				return true
			}
		}
		return false
	}
	return r.Min <= age && age <= r.Max
}

// KnockoutCondition is a named boolean condition that disqualifies a
// product outright when the profile's value matches exactly.
type KnockoutCondition struct {
	Condition string
	Value     bool
}

// KnockoutRule holds the knockout conditions for a product. Guaranteed-issue
// products carry the "No health questions" marker instead of a condition
// list and impose no knockouts.
type KnockoutRule struct {
	NoHealthQuestions bool
	Conditions        []KnockoutCondition
}

const noHealthQuestionsMarker = "no health questions"

// UnmarshalYAML accepts the rule-file forms: a mapping of tier names
// (any, premier_plus, standard_graded, ...) to either a condition list or
// the "No health questions" marker string.
func (k *KnockoutRule) UnmarshalYAML(value *yaml.Node) error {
	k.NoHealthQuestions = false
	k.Conditions = nil

	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), noHealthQuestionsMarker) {
			k.NoHealthQuestions = true
		}
		return nil
	}

	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("knockouts: expected mapping or string, got %v", value.Kind)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		entry := value.Content[i+1]

		switch entry.Kind {
		case yaml.ScalarNode:
			var s string
			if err := entry.Decode(&s); err != nil {
				return err
			}
			if strings.EqualFold(strings.TrimSpace(s), noHealthQuestionsMarker) {
				k.NoHealthQuestions = true
			}
		case yaml.SequenceNode:
			var items []map[string]bool
			if err := entry.Decode(&items); err != nil {
				return fmt.Errorf("knockouts %q: %w", value.Content[i].Value, err)
			}
			for _, item := range items {
				for condition, v := range item {
					k.Conditions = append(k.Conditions, KnockoutCondition{
						Condition: NormalizeConditionKey(condition),
						Value:     v,
					})
				}
			}
		}
	}

	sort.Slice(k.Conditions, func(i, j int) bool { return k.Conditions[i].Condition < k.Conditions[j].Condition })
	return nil
}

// BMILimit is a maximum-BMI rule: either a flat number or a per-gender map
// with a "standard" fallback key.
type BMILimit struct {
	Flat     float64
	ByGender map[string]float64
}

// UnmarshalYAML accepts a scalar (flat limit) or a gender map.
func (b *BMILimit) UnmarshalYAML(value *yaml.Node) error {
	b.Flat = 0
	b.ByGender = nil

	if value.Kind == yaml.ScalarNode {
		return value.Decode(&b.Flat)
	}

	byGender := make(map[string]float64)
	if err := value.Decode(&byGender); err != nil {
		return err
	}
	b.ByGender = make(map[string]float64, len(byGender))
	for gender, limit := range byGender {
		b.ByGender[strings.ToLower(strings.TrimSpace(gender))] = limit
	}
	return nil
}

// LimitFor resolves the applicable BMI limit for a gender, falling back to
// the "standard" key. ok is false when the rule defines no usable limit.
func (b *BMILimit) LimitFor(gender string) (float64, bool) {
	if b == nil {
		return 0, false
	}
	if b.Flat > 0 {
		return b.Flat, true
	}
	if len(b.ByGender) == 0 {
		return 0, false
	}
	if limit, ok := b.ByGender[genderKey(gender)]; ok && limit > 0 {
		return limit, true
	}
	if limit, ok := b.ByGender["standard"]; ok && limit > 0 {
		return limit, true
	}
	return 0, false
}

func genderKey(gender string) string {
	switch strings.ToUpper(strings.TrimSpace(gender)) {
	case "M", "MALE":
		return "male"
	case "F", "FEMALE":
		return "female"
	default:
		return "standard"
	}
}

// BuildRule limits the height/weight build of an applicant.
type BuildRule struct {
	MaxBMI BMILimit `yaml:"max_bmi"`
}

// MedicationRule holds a product's medication screening rules: a flat
// rejected list and, for some conditions, a required-medication set proving
// the condition is treated.
type MedicationRule struct {
	Rejected             []string            `yaml:"rejected"`
	RequiredForCondition map[string][]string `yaml:"required_for_condition"`
}

// DrivingRule limits recent driving history.
type DrivingRule struct {
	MaxDUIRecent       int  `yaml:"max_dui_recent"`
	MaxMajorViolations *int `yaml:"max_major_violations"`
	DUIYearsLookback   int  `yaml:"dui_years_lookback"`
}

// EligibilityRules is the fixed set of typed eligibility sub-rules a product
// may carry. Absent sub-rules impose no restriction.
type EligibilityRules struct {
	Build                     *BuildRule      `yaml:"build"`
	Medications               *MedicationRule `yaml:"medications"`
	Driving                   *DrivingRule    `yaml:"driving"`
	FelonyLookbackYears       int             `yaml:"felony_lookback_years"`
	HazardousAvocationAllowed *bool           `yaml:"avocation_hazardous"`
	AviationAllowed           *bool           `yaml:"aviation"`
	NicotineNonTobaccoAllowed *bool           `yaml:"nicotine_non_tobacco_allowed"`
}

// StateAvailability describes where a product is sold.
type StateAvailability struct {
	AllStates bool     `yaml:"all_states"`
	Except    []string `yaml:"except"`
}

// ProductRule is an immutable record describing a single carrier product
// and its eligibility rules. Rules are loaded once at startup and held
// read-only for the process lifetime.
type ProductRule struct {
	Carrier          string             `yaml:"carrier"`
	Product          string             `yaml:"product"`
	Type             string             `yaml:"type"`
	Synopsis         string             `yaml:"synopsis"`
	FaceAmount       FaceAmountRule     `yaml:"face_amount"`
	IssueAges        IssueAgeRule       `yaml:"issue_ages"`
	TobaccoClasses   []string           `yaml:"tobacco_classes"`
	UnderwritingType UnderwritingType   `yaml:"underwriting_type"`
	Knockouts        KnockoutRule       `yaml:"knockouts"`
	Eligibility      EligibilityRules   `yaml:"eligibility"`
	Riders           []string           `yaml:"riders"`
	FinancialRating  string             `yaml:"financial_rating"`
	PremiumTier      PremiumTier        `yaml:"premium_tier"`
	TierStructure    map[string]string  `yaml:"tier_structure"`
	UniqueAdvantages []string           `yaml:"unique_advantages"`
	Limitations      []string           `yaml:"limitations"`
	Notes            []string           `yaml:"notes"`
	StateAvailability *StateAvailability `yaml:"state_availability"`
}

// Validate checks required fields and fills defaults once at load time so
// downstream code never re-checks presence.
func (p *ProductRule) Validate() error {
	if strings.TrimSpace(p.Carrier) == "" {
		return ErrMissingCarrier
	}
	if strings.TrimSpace(p.Product) == "" {
		return ErrMissingProduct
	}
	if p.FaceAmount.Min < 0 || (p.FaceAmount.Max > 0 && p.FaceAmount.Max < p.FaceAmount.Min) {
		return ErrInvalidFaceBand
	}
	for _, band := range p.FaceAmount.ByAge {
		if band.MinAge > band.MaxAge || band.MinFace > band.MaxFace {
			return ErrInvalidFaceBand
		}
	}
	if p.IssueAges.Max == 0 && len(p.IssueAges.ByDuration) == 0 {
		p.IssueAges.Max = 120
	}
	if p.IssueAges.Min < 0 || (p.IssueAges.Max > 0 && p.IssueAges.Max < p.IssueAges.Min) {
		return ErrInvalidAgeBand
	}
	for _, band := range p.IssueAges.ByDuration {
		if band.MinAge > band.MaxAge {
			return ErrInvalidAgeBand
		}
	}
	switch p.PremiumTier {
	case "", PremiumTierLow, PremiumTierMedium, PremiumTierHigh:
	default:
		return ErrInvalidPremiumTier
	}
	return nil
}

// Key identifies the product within the catalog.
func (p *ProductRule) Key() string {
	return p.Carrier + "/" + p.Product
}

// AvailableIn reports whether the product is sold in the given state.
// Products without availability data are assumed available everywhere.
func (p *ProductRule) AvailableIn(state string) bool {
	if p.StateAvailability == nil || !p.StateAvailability.AllStates {
		return true
	}
	for _, excluded := range p.StateAvailability.Except {
		if strings.EqualFold(excluded, state) {
			return false
		}
	}
	return true
}

// FaceRangeString formats the flat face-amount bounds for display.
func (p *ProductRule) FaceRangeString() string {
	if p.FaceAmount.Max <= 0 {
		return fmt.Sprintf("$%s+", formatAmount(p.FaceAmount.Min))
	}
	return fmt.Sprintf("$%s - $%s", formatAmount(p.FaceAmount.Min), formatAmount(p.FaceAmount.Max))
}

// AgeRangeString formats the flat issue-age bounds for display.
func (p *ProductRule) AgeRangeString() string {
	return fmt.Sprintf("%d-%d", p.IssueAges.Min, p.IssueAges.Max)
}

// formatAmount renders an amount with thousands separators.
func formatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// parseAgeRangeKey parses band keys like "18_45" into bounds.
func parseAgeRangeKey(key string) (minAge, maxAge int, err error) {
	parts := strings.Split(strings.TrimSpace(key), "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected MIN_MAX form")
	}
	minAge, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	maxAge, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return minAge, maxAge, nil
}
