package recommender

import (
	"fmt"
	"strings"

	"carrier-recommendation-engine/internal/models"
)

const noEligibleMessage = "Based on the provided information, we were unable to identify an eligible carrier product at this time. Please review the client's profile or contact underwriting for manual review."

// renderExplanation formats the free-text explanation for API output.
func renderExplanation(profile *models.ClientProfile, response *models.RecommendationResponse) string {
	if len(response.Recommendations) == 0 && response.BestMatch == nil {
		return noEligibleMessage
	}

	name := profile.FirstName
	if name == "" {
		name = "the client"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on %s's profile:\n\n", name)

	if response.BestMatch != nil {
		fmt.Fprintf(&b, "Best match: %s - %s\n\n", response.BestMatch.Carrier, response.BestMatch.Product)
	}

	if len(response.BudgetOptions) > 0 {
		b.WriteString("Budget options:\n")
		for _, pick := range response.BudgetOptions {
			fmt.Fprintf(&b, "- %s - %s\n", pick.Carrier, pick.Product)
		}
		b.WriteString("\n")
	}

	alternatives := withoutBestMatch(response.Alternatives, response.BestMatch)
	if len(alternatives) > 0 {
		b.WriteString("Lenient underwriting alternatives:\n")
		for _, pick := range alternatives {
			fmt.Fprintf(&b, "- %s - %s (%s)\n", pick.Carrier, pick.Product, pick.UnderwritingType)
		}
		b.WriteString("\n")
	}

	for i, pick := range response.Recommendations {
		fmt.Fprintf(&b, "%d. **%s - %s** (%s)\n", i+1, pick.Carrier, pick.Product, pick.Type)
		if pick.Rationale != "" {
			fmt.Fprintf(&b, "   - %s\n", pick.Rationale)
		}
		if pick.UnderwritingType != "" {
			fmt.Fprintf(&b, "   - Underwriting: %s\n", pick.UnderwritingType)
		}
		if pick.FaceAmountRange != "" {
			fmt.Fprintf(&b, "   - Face Amount: %s\n", pick.FaceAmountRange)
		}
		if pick.IssueAges != "" {
			fmt.Fprintf(&b, "   - Issue Ages: %s\n", pick.IssueAges)
		}
		if pick.FinancialRating != "" {
			fmt.Fprintf(&b, "   - Rating: %s\n", pick.FinancialRating)
		}
		if len(pick.Riders) > 0 {
			riders := pick.Riders
			if len(riders) > 3 {
				riders = riders[:3]
			}
			fmt.Fprintf(&b, "   - Riders: %s\n", strings.Join(riders, ", "))
		}
		if len(pick.Notes) > 0 {
			fmt.Fprintf(&b, "   - Note: %s\n", pick.Notes[0])
		}
		fmt.Fprintf(&b, "   - Match Score: %.1f/100\n\n", pick.Score)
	}

	return b.String()
}

// withoutBestMatch drops the best match from the rendered alternatives list.
func withoutBestMatch(alternatives []models.Recommendation, best *models.Recommendation) []models.Recommendation {
	if best == nil {
		return alternatives
	}
	out := make([]models.Recommendation, 0, len(alternatives))
	for _, alt := range alternatives {
		if alt.Carrier == best.Carrier && alt.Product == best.Product {
			continue
		}
		out = append(out, alt)
	}
	return out
}
