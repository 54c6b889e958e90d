package usecase

import (
	"context"

	"github.com/allergyscan/backend/internal/domain"
)

// ScanService resolves a barcode to a product and assesses its allergen
// risk for the caller's profile. Detection and risk evaluation are pure
// computation; only the product lookup may block.
type ScanService struct {
	products *ProductService
	detector *Detector
}

// NewScanService creates a scan service with dependencies
func NewScanService(products *ProductService, detector *Detector) *ScanService {
	return &ScanService{
		products: products,
		detector: detector,
	}
}

// Scan looks up a barcode and evaluates the product against the caller's
// allergen list. Fails with ErrProductNotFound when the upstream fetch
// fails and no cached copy exists.
func (s *ScanService) Scan(ctx context.Context, barcode string, userAllergens []domain.AllergenCategory) (*domain.ScanResult, error) {
	product, err := s.products.GetProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	evidence := s.detector.Detect(product.IngredientsText)
	risk := Assess(evidence, userAllergens)

	return &domain.ScanResult{
		Product: *product,
		Risk:    risk,
	}, nil
}

// GetProduct returns the cached or freshly fetched record for a barcode,
// without risk evaluation
func (s *ScanService) GetProduct(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	return s.products.GetProduct(ctx, barcode)
}

// CacheStats returns the product cache counters
func (s *ScanService) CacheStats() domain.CacheStats {
	return s.products.Stats()
}
