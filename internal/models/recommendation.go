package models

// PortalContact is agent contact metadata for a carrier, resolved from the
// portal directory. Unmatched carriers get the name only.
type PortalContact struct {
	Name         string `json:"name"`
	PortalURL    string `json:"portal_url,omitempty"`
	EAppURL      string `json:"eapp_url,omitempty"`
	Phone        string `json:"phone,omitempty"`
	LogoFilename string `json:"logo_filename,omitempty"`
}

// Recommendation is one scored candidate rendered for API output.
// Score is on the 0-100 scale; Confidence is set only for fallback
// candidates and is capped at 0.9.
type Recommendation struct {
	Carrier          string            `json:"carrier"`
	Product          string            `json:"product"`
	Type             string            `json:"type"`
	Score            float64           `json:"score"`
	Confidence       float64           `json:"confidence,omitempty"`
	Rationale        string            `json:"rationale"`
	UnderwritingType UnderwritingType  `json:"underwriting_type"`
	FaceAmountRange  string            `json:"face_amount_range"`
	IssueAges        string            `json:"issue_ages"`
	Notes            []string          `json:"notes,omitempty"`
	Riders           []string          `json:"riders,omitempty"`
	FinancialRating  string            `json:"financial_rating,omitempty"`
	PremiumTier      PremiumTier       `json:"premium_tier,omitempty"`
	TierStructure    map[string]string `json:"tier_structure,omitempty"`
	Portal           PortalContact     `json:"portal"`
}

// RecommendationResponse is the full result of one recommendation pass.
type RecommendationResponse struct {
	RequestID         string           `json:"request_id"`
	Recommendations   []Recommendation `json:"recommendations"`
	BestMatch         *Recommendation  `json:"best_match"`
	BudgetOptions     []Recommendation `json:"budget_options"`
	Alternatives      []Recommendation `json:"alternatives"`
	Explanation       string           `json:"explanation"`
	FallbackTriggered bool             `json:"fallback_triggered"`
}
