package ingest

import (
	"regexp"
	"strings"
)

var (
	cyrillicPattern = regexp.MustCompile(`[А-Яа-яЁё]`)
	hasDigitPattern = regexp.MustCompile(`[0-9]`)

	// Latin tokens of 3+ chars, the usual shape of an article code embedded
	// in a Cyrillic item name.
	latinTokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9.-]{2,}`)

	articlePatterns = []*regexp.Regexp{
		// Code in parentheses.
		regexp.MustCompile(`\(([A-Za-z0-9.-]+)\)`),
		// Code after "арт"/"артикул"/"art"/"article".
		regexp.MustCompile(`(?i)(?:артикул|арт|article|art)[\s:.-]*([A-Za-z0-9.-]+)`),
		// Letters-separator-digits.
		regexp.MustCompile(`\b([A-Za-z]+[.-][0-9]+[A-Za-z0-9.-]*)\b`),
		// Digits-separator-letters.
		regexp.MustCompile(`\b([0-9]+[.-][A-Za-z]+[A-Za-z0-9.-]*)\b`),
	}

	spacesPattern = regexp.MustCompile(`\s+`)
)

// ExtractArticle pulls an article code out of a free-text item name, used
// when the ledger's code column is empty. A Latin token carrying a digit
// inside a Cyrillic name is the strongest signal; explicit markers and
// letter-digit shapes are tried next. Returns the cleaned name and the
// extracted code, both possibly empty.
func ExtractArticle(name string) (cleaned, article string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	cleaned = name

	if cyrillicPattern.MatchString(name) {
		for _, token := range latinTokenPattern.FindAllString(name, -1) {
			if hasDigitPattern.MatchString(token) {
				article = token
				cleaned = strings.Replace(name, token, "", 1)
				break
			}
		}
	}

	if article == "" {
		for _, pattern := range articlePatterns {
			if m := pattern.FindStringSubmatchIndex(name); m != nil {
				article = name[m[2]:m[3]]
				cleaned = name[:m[0]] + name[m[1]:]
				break
			}
		}
	}

	cleaned = spacesPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " \t-.,;:")
	return cleaned, article
}
