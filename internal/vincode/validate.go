package vincode

// Validation is the total result of a VIN check. Normalized is empty when the
// cleaned candidate is not exactly 17 characters; it is populated even when
// the checksum fails so callers can offer the string for manual correction.
type Validation struct {
	Normalized    string
	ChecksumValid bool
}

const vinLength = 17

// checkDigitPos is the index of the self-check character within the VIN.
const checkDigitPos = 8

// Validate normalizes the candidate and verifies the ISO 3779 check digit.
// It never fails: any input produces a well-defined Validation.
func Validate(candidate string) Validation {
	normalized := Normalize(candidate)
	if len(normalized) != vinLength {
		return Validation{}
	}

	sum := 0
	for i := 0; i < vinLength; i++ {
		if i == checkDigitPos {
			continue
		}
		value, ok := transliteration[normalized[i]]
		if !ok {
			// Characters without a transliteration value can never
			// satisfy the checksum.
			return Validation{Normalized: normalized}
		}
		sum += positionWeights[i] * value
	}

	expected := byte('0' + sum%11)
	if sum%11 == 10 {
		expected = 'X'
	}

	return Validation{
		Normalized:    normalized,
		ChecksumValid: normalized[checkDigitPos] == expected,
	}
}
