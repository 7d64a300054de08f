package task

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFD decomposition, folding
// accented letters to their ASCII base.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NewID derives a practically unique task ID from the title: a slug of the
// first three words, a compact UTC creation timestamp, and a short random
// suffix.
func NewID(title string, now time.Time) string {
	slug := slugify(title, 3)
	if slug == "" {
		slug = "task"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return slug + "-" + now.UTC().Format("20060102T150405") + "-" + suffix
}

// slugify lowercases the first maxWords words of s, folds diacritics, and
// collapses anything non-alphanumeric into single dashes.
func slugify(s string, maxWords int) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	words := strings.Fields(folded)
	if len(words) > maxWords {
		words = words[:maxWords]
	}

	var b strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(strings.Join(words, " ")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
