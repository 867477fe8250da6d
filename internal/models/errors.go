// Package models defines the data structures for the carrier recommendation engine.
package models

import (
	"errors"
)

// Common errors
var (
	ErrMissingCarrier     = errors.New("rule is missing carrier name")
	ErrMissingProduct     = errors.New("rule is missing product name")
	ErrInvalidFaceBand    = errors.New("face amount bounds are inverted or negative")
	ErrInvalidAgeBand     = errors.New("issue age bounds are inverted or negative")
	ErrInvalidPremiumTier = errors.New("premium tier must be low, medium, or high")
	ErrInvalidAge         = errors.New("age must be between 0 and 120")
	ErrNegativeCoverage   = errors.New("desired coverage cannot be negative")
)

// ValidateProfile checks request-level bounds on a client profile.
// Field-level gaps (missing age, zero face amount) are not errors here;
// the eligibility filter fails those closed per rule.
func ValidateProfile(p *ClientProfile) error {
	if p.Age < 0 || p.Age > 120 {
		return ErrInvalidAge
	}
	if p.DesiredCoverage < 0 {
		return ErrNegativeCoverage
	}
	return nil
}
