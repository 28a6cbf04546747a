package domain

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxCodeLength bounds access codes. Codes are typed by hand from a printed card.
const MaxCodeLength = 32

var accessCodeRe = regexp.MustCompile(`^[A-Z0-9]+$`)

// Album is one access code and the photos it unlocks.
type Album struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCode trims and uppercases a human-entered access code.
// The result is not guaranteed valid; check it with ValidCode.
func NormalizeCode(raw string) string {
	// cases.Caser keeps state, so each call gets its own.
	return cases.Upper(language.Und).String(strings.TrimSpace(raw))
}

// ValidCode reports whether a normalized code contains only A-Z and 0-9
// and fits within MaxCodeLength.
func ValidCode(code string) bool {
	return len(code) <= MaxCodeLength && accessCodeRe.MatchString(code)
}
