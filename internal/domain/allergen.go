package domain

import (
	"fmt"
	"strings"
)

// AllergenCategory is one of the fixed set of allergen classes tracked by the system
type AllergenCategory string

const (
	CategoryNuts      AllergenCategory = "nuts"
	CategoryDairy     AllergenCategory = "dairy"
	CategoryGluten    AllergenCategory = "gluten"
	CategoryEggs      AllergenCategory = "eggs"
	CategorySoy       AllergenCategory = "soy"
	CategoryShellfish AllergenCategory = "shellfish"
	CategoryFish      AllergenCategory = "fish"
	CategorySesame    AllergenCategory = "sesame"
	CategorySulfites  AllergenCategory = "sulfites"
	CategoryMustard   AllergenCategory = "mustard"
)

// Categories returns the closed set of allergen categories in canonical order
func Categories() []AllergenCategory {
	return []AllergenCategory{
		CategoryNuts, CategoryDairy, CategoryGluten, CategoryEggs, CategorySoy,
		CategoryShellfish, CategoryFish, CategorySesame, CategorySulfites, CategoryMustard,
	}
}

// ParseCategory validates a raw string against the closed category set
func ParseCategory(s string) (AllergenCategory, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown allergen category %q", ErrInvalidRequest, s)
}

// ParseCategories validates a caller's allergen list, dropping duplicates
// while preserving the declared order
func ParseCategories(raw []string) ([]AllergenCategory, error) {
	var categories []AllergenCategory
	seen := make(map[AllergenCategory]bool, len(raw))
	for _, s := range raw {
		c, err := ParseCategory(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			categories = append(categories, c)
			seen[c] = true
		}
	}
	return categories, nil
}

// MatchKind describes how an allergen keyword was found in ingredient text
type MatchKind string

const (
	// MatchDirect means the keyword appeared as a listed ingredient
	MatchDirect MatchKind = "direct"
	// MatchMayContain means the keyword appeared inside a "may contain" advisory window
	MatchMayContain MatchKind = "may_contain"
	// MatchFuzzy means a token was within edit-distance similarity of a keyword
	MatchFuzzy MatchKind = "fuzzy"
)

// MatchEvidence is a single matched occurrence of an allergen keyword
// in ingredient text. Produced per scan, never persisted.
type MatchEvidence struct {
	Category    AllergenCategory `json:"category"`
	MatchedTerm string           `json:"matchedTerm"`
	Position    int              `json:"position"`
	Kind        MatchKind        `json:"kind"`
	Confidence  float64          `json:"confidence"` // 0-1
}

// RiskLevel is the derived tri-state severity for a user/product pair
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

// RiskAssessment combines matched allergens with a severity and display message
type RiskAssessment struct {
	RiskLevel        RiskLevel          `json:"riskLevel"`
	MatchedAllergens []AllergenCategory `json:"matchedAllergens"`
	Message          string             `json:"message"`
}
