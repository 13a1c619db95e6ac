package mapping

import (
	"strings"
	"unicode"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// ratio returns a normalized edit-distance similarity between two strings
// scaled to 0..100, computed over runes so multi-byte letters count as whole
// characters. Substitutions cost 2, which makes the score match the classic
// token ratio: (len(a)+len(b)-distance) / (len(a)+len(b)).
func ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := editDistance(ra, rb)
	if dist >= total {
		return 0
	}
	return float64(total-dist) / float64(total) * 100
}

// editDistance is the two-row Wagner-Fischer Levenshtein distance with
// insertion and deletion cost 1 and substitution cost 2.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 1; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			ins := curr[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + 2
			curr[j] = ins
			if del < curr[j] {
				curr[j] = del
			}
			if sub < curr[j] {
				curr[j] = sub
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity scores two items 0..100. When both codes are non-empty the score
// is weighted 40% name and 60% code; otherwise only the names are compared.
// Comparison is case-insensitive.
func Similarity(a, b domain.Item) float64 {
	nameSim := ratio(strings.ToLower(a.Name), strings.ToLower(b.Name))

	code1 := strings.ToLower(a.Code)
	code2 := strings.ToLower(b.Code)
	if code1 != "" && code2 != "" {
		codeSim := ratio(code1, code2)
		return nameSim*0.4 + codeSim*0.6
	}
	return nameSim
}

// DeriveGroupID builds a stable group id for an unmatched item: "art_" plus
// the code when present, otherwise "name_" plus the first 10 alphanumeric
// runes of the name.
func DeriveGroupID(name, code string) string {
	if c := strings.TrimSpace(code); c != "" {
		return "art_" + c
	}

	var b strings.Builder
	count := 0
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			count++
			if count == 10 {
				break
			}
		}
	}
	return "name_" + b.String()
}
