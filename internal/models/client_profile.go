package models

import (
	"sort"
	"strings"
)

// ClientProfile describes one applicant for a single recommendation request.
// Profiles are transient and never persisted.
type ClientProfile struct {
	FirstName       string  `json:"first_name,omitempty"`
	Age             int     `json:"age"`
	State           string  `json:"state"`
	Gender          string  `json:"gender,omitempty"`
	Smoker          bool    `json:"smoker"`
	TobaccoStatus   string  `json:"tobacco_status,omitempty"`
	NicotineUse     bool    `json:"nicotine_use,omitempty"`
	CoverageType    string  `json:"coverage_type"`
	DesiredCoverage int64   `json:"desired_coverage"`
	HeightFt        float64 `json:"height_ft,omitempty"`
	HeightIn        float64 `json:"height_in,omitempty"`
	WeightLbs       float64 `json:"weight,omitempty"`

	MedicalConditions map[string]bool `json:"medical_conditions,omitempty"`
	Medications       []string        `json:"medications,omitempty"`

	DUICountRecent       int  `json:"dui_count_recent,omitempty"`
	MajorViolations      int  `json:"major_violations,omitempty"`
	FelonyWithinLookback bool `json:"felony_within_lookback,omitempty"`
	HazardousAvocation   bool `json:"hazardous_avocation,omitempty"`
	AviationActivity     bool `json:"aviation_activity,omitempty"`

	RiderPreferences    []string `json:"rider_preferences,omitempty"`
	PriorDecline        bool     `json:"prior_decline,omitempty"`
	PriorDeclineCarrier string   `json:"prior_decline_carrier,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// Normalize canonicalizes free-form profile fields in place: state and
// gender upper-cased, condition keys lower-cased, tobacco status folded
// into the smoker flag.
func (p *ClientProfile) Normalize() {
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	p.CoverageType = strings.TrimSpace(p.CoverageType)

	if isTobaccoStatus(p.TobaccoStatus) {
		p.Smoker = true
	}

	if len(p.MedicalConditions) > 0 {
		conditions := make(map[string]bool, len(p.MedicalConditions))
		for name, v := range p.MedicalConditions {
			key := NormalizeConditionKey(name)
			if key != "" {
				conditions[key] = v
			}
		}
		p.MedicalConditions = conditions
	}

	meds := p.Medications[:0]
	for _, med := range p.Medications {
		if trimmed := strings.TrimSpace(med); trimmed != "" {
			meds = append(meds, trimmed)
		}
	}
	p.Medications = meds
}

// isTobaccoStatus maps the enumerated tobacco_status strings onto the
// smoker flag. Unknown values leave the flag untouched.
func isTobaccoStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "smoker", "tobacco", "yes", "true", "current":
		return true
	}
	return false
}

// NormalizeConditionKey canonicalizes a condition name for knockout and
// medication lookups: lower case, separators collapsed to underscores.
func NormalizeConditionKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

// ConditionValue looks up a condition's value under the canonical key.
func (p *ClientProfile) ConditionValue(name string) bool {
	return p.MedicalConditions[NormalizeConditionKey(name)]
}

// HasConditions reports whether the profile affirms any medical condition.
func (p *ClientProfile) HasConditions() bool {
	for _, v := range p.MedicalConditions {
		if v {
			return true
		}
	}
	return false
}

// ConditionNames returns the affirmed condition keys in sorted order.
func (p *ClientProfile) ConditionNames() []string {
	names := make([]string, 0, len(p.MedicalConditions))
	for name, v := range p.MedicalConditions {
		if v {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// TakesMedication reports whether the profile lists the medication,
// case-insensitively.
func (p *ClientProfile) TakesMedication(name string) bool {
	for _, med := range p.Medications {
		if strings.EqualFold(strings.TrimSpace(med), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

const (
	lbsPerKg     = 2.20462
	metersPerIn  = 0.0254
	inchesPerFt  = 12.0
)

// BMI computes body-mass index from imperial height and weight. ok is false
// when the anthropometric data is absent or implausible, in which case the
// build check treats the profile as acceptable.
func (p *ClientProfile) BMI() (bmi float64, ok bool) {
	totalInches := p.HeightFt*inchesPerFt + p.HeightIn
	if totalInches <= 0 || p.WeightLbs <= 0 {
		return 0, false
	}
	meters := totalInches * metersPerIn
	kg := p.WeightLbs / lbsPerKg
	return kg / (meters * meters), true
}
