package vincode

import "strings"

// Normalize uppercases the input and strips every character outside the VIN
// alphabet [A-HJ-NPR-Z0-9]. Empty input yields empty output.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z' && r != 'I' && r != 'O' && r != 'Q':
			b.WriteRune(r)
		}
	}
	return b.String()
}
