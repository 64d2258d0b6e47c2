package models

// Brand coherence categories, derived from the coherence score.
const (
	CategoryPerfect    = "perfect"
	CategoryGood       = "good"
	CategoryAcceptable = "acceptable"
	CategoryOffBrand   = "off_brand"
)

// CoherentThreshold is the minimum score considered on-brand.
const CoherentThreshold = 70

// BrandValidationResult is the structured report produced by brand
// coherence validation (both the heuristic and model-assisted paths).
type BrandValidationResult struct {
	CoherenceScore int      `json:"coherence_score"` // 0-100, clamped
	IsCoherent     bool     `json:"is_coherent"`     // score >= 70
	Violations     []string `json:"violations"`
	Strengths      []string `json:"strengths"`
	Feedback       string   `json:"feedback"` // single sentence
	Category       string   `json:"category"`
}

// CategoryForScore maps a clamped coherence score to its category band.
func CategoryForScore(score int) string {
	switch {
	case score >= 90:
		return CategoryPerfect
	case score >= 75:
		return CategoryGood
	case score >= 60:
		return CategoryAcceptable
	default:
		return CategoryOffBrand
	}
}

// ClampScore bounds a coherence score into [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
