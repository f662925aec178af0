package recognition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vinscan-service/internal/domain/vin"
	"vinscan-service/internal/vincode"
)

var (
	// ErrNoUsableText is returned by a single stage when it could not
	// produce a candidate worth passing downstream.
	ErrNoUsableText = errors.New("no usable text recognized")
	// ErrExtractionFailed is returned by the pipeline when both the local
	// and the cloud stage failed.
	ErrExtractionFailed = errors.New("ocr extraction failed")
)

// vinAlphabet is the character whitelist for VIN recognition: digits and
// uppercase letters excluding I, O and Q.
const vinAlphabet = "0123456789ABCDEFGHJKLMNPRSTUVWXYZ"

// minUsableLen is the shortest cleaned text still worth offering for manual
// correction when no full VIN run was found.
const minUsableLen = 10

// buildCandidate post-processes raw engine output. A 17-character run of VIN
// alphabet characters wins; failing that, cleaned text of at least ten
// characters is returned as a lower-trust candidate. Anything shorter is a
// stage failure.
func buildCandidate(raw string, source vin.CandidateSource) (vin.OcrCandidate, error) {
	trimmed := strings.TrimSpace(raw)
	if run, ok := findVinRun(trimmed); ok {
		return vin.OcrCandidate{Text: run, RawText: trimmed, Source: source, ProducedAt: time.Now()}, nil
	}

	cleaned := vincode.Normalize(trimmed)
	if len(cleaned) >= minUsableLen {
		return vin.OcrCandidate{Text: cleaned, RawText: trimmed, Source: source, ProducedAt: time.Now()}, nil
	}

	return vin.OcrCandidate{}, fmt.Errorf("%w: cleaned text %q is %d characters", ErrNoUsableText, cleaned, len(cleaned))
}

// findVinRun scans the text for a contiguous run of at least 17 VIN alphabet
// characters and returns the first 17 of it. Characters outside the alphabet
// break a run.
func findVinRun(text string) (string, bool) {
	upper := strings.ToUpper(text)
	start := -1
	for i := 0; i <= len(upper); i++ {
		inAlphabet := i < len(upper) && strings.IndexByte(vinAlphabet, upper[i]) >= 0
		if inAlphabet {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 17 {
			return upper[start : start+17], true
		}
		start = -1
	}
	return "", false
}
