package confidence

import (
	"strings"

	"vinscan-service/internal/domain/vin"
)

// Confidence contributions. A found 17-character run dominates; brand and
// model keywords refine the score.
const (
	baseScore       = 0.3
	vinFoundScore   = 0.4
	brandMatchScore = 0.2
	modelMatchScore = 0.1
)

// Aggregate combines the validator outcome with brand and model keyword
// signals into the pipeline's terminal RecognitionResult. It is total: any
// candidate and any record (including nil) produce a well-defined result.
func Aggregate(candidate vin.OcrCandidate, record *vin.VinRecord) vin.RecognitionResult {
	text := candidate.RawText
	if text == "" {
		text = candidate.Text
	}

	brand := matchFirst(text, brandKeywords)
	model := matchFirst(text, modelKeywords)

	score := baseScore
	if record != nil && record.Normalized != "" {
		score += vinFoundScore
	}
	if brand != "" {
		score += brandMatchScore
	}
	if model != "" {
		score += modelMatchScore
	}
	if score > 1.0 {
		score = 1.0
	}

	return vin.RecognitionResult{
		Vin:        record,
		Brand:      brand,
		Model:      model,
		Category:   Classify(text),
		Confidence: score,
	}
}

// Classify resolves the vehicle category from recognized text. Precedence is
// EV, then REV, then ICEV; unmatched text is Other.
func Classify(text string) vin.VehicleCategory {
	switch {
	case matchAny(text, evKeywords):
		return vin.CategoryEV
	case matchAny(text, revKeywords):
		return vin.CategoryREV
	case matchAny(text, icevKeywords):
		return vin.CategoryICEV
	default:
		return vin.CategoryOther
	}
}

func matchFirst(text string, keywords []string) string {
	folded, words := fold(text)
	for _, kw := range keywords {
		if matchKeyword(folded, words, kw) {
			return kw
		}
	}
	return ""
}

func matchAny(text string, keywords []string) bool {
	folded, words := fold(text)
	for _, kw := range keywords {
		if matchKeyword(folded, words, kw) {
			return true
		}
	}
	return false
}

// fold lowercases the text and splits it into alphanumeric words.
func fold(text string) (string, map[string]bool) {
	folded := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		words[w] = true
	}
	return folded, words
}

// matchKeyword matches single-token keywords as whole words so that short
// terms like "ev" do not fire inside unrelated runs, and multi-word keywords
// as substrings.
func matchKeyword(folded string, words map[string]bool, kw string) bool {
	if strings.ContainsAny(kw, " -") {
		return strings.Contains(folded, kw)
	}
	return words[kw]
}
