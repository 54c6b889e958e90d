package off

import "github.com/allergyscan/backend/internal/domain"

// mapToSnapshot converts an OFF product to our domain ProductSnapshot model.
// OFF fields are crowd-sourced and often sparse; prefer the plain field,
// then the English variant, then the generic name.
func mapToSnapshot(p *offProduct) *domain.ProductSnapshot {
	return &domain.ProductSnapshot{
		Name:            firstNonEmpty(p.ProductName, p.ProductNameEn, p.GenericName),
		Brand:           p.Brands,
		IngredientsText: firstNonEmpty(p.IngredientsText, p.IngredientsTextEn),
		ImageURL:        p.ImageURL,
	}
}

// firstNonEmpty returns the first non-empty string
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
