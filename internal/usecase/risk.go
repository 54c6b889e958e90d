package usecase

import (
	"fmt"
	"strings"

	"github.com/allergyscan/backend/internal/domain"
)

// Risk messages for callers without a matching evidence set
const (
	msgSafe       = "No known allergens detected for your profile."
	msgNoProfile  = "No allergens declared in your profile."
	msgDangerTmpl = "WARNING: Contains %s"
	msgWarnTmpl   = "CAUTION: May contain %s"
)

// Assess combines match evidence with the caller's allergen profile.
// Kind precedence decides severity: any direct match means danger regardless
// of other evidence; advisory or fuzzy matches alone mean warning.
// MatchedAllergens follows the caller's declared allergen order.
func Assess(evidence []domain.MatchEvidence, userAllergens []domain.AllergenCategory) domain.RiskAssessment {
	if len(userAllergens) == 0 {
		return domain.RiskAssessment{
			RiskLevel:        domain.RiskSafe,
			MatchedAllergens: []domain.AllergenCategory{},
			Message:          msgNoProfile,
		}
	}

	userSet := make(map[domain.AllergenCategory]bool, len(userAllergens))
	for _, a := range userAllergens {
		userSet[a] = true
	}

	matchedSet := make(map[domain.AllergenCategory]bool)
	hasDirect := false
	hasIndirect := false
	for _, ev := range evidence {
		if !userSet[ev.Category] {
			continue
		}
		matchedSet[ev.Category] = true
		switch ev.Kind {
		case domain.MatchDirect:
			hasDirect = true
		case domain.MatchMayContain, domain.MatchFuzzy:
			hasIndirect = true
		}
	}

	// Stable display order: the caller's declared allergen order
	var matched []domain.AllergenCategory
	seen := make(map[domain.AllergenCategory]bool)
	for _, a := range userAllergens {
		if matchedSet[a] && !seen[a] {
			matched = append(matched, a)
			seen[a] = true
		}
	}

	switch {
	case hasDirect:
		return domain.RiskAssessment{
			RiskLevel:        domain.RiskDanger,
			MatchedAllergens: matched,
			Message:          fmt.Sprintf(msgDangerTmpl, joinCategories(matched)),
		}
	case hasIndirect:
		return domain.RiskAssessment{
			RiskLevel:        domain.RiskWarning,
			MatchedAllergens: matched,
			Message:          fmt.Sprintf(msgWarnTmpl, joinCategories(matched)),
		}
	default:
		return domain.RiskAssessment{
			RiskLevel:        domain.RiskSafe,
			MatchedAllergens: []domain.AllergenCategory{},
			Message:          msgSafe,
		}
	}
}

// joinCategories renders categories as a comma-separated list for messages
func joinCategories(categories []domain.AllergenCategory) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
