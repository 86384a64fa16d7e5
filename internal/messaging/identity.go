package messaging

import (
	"regexp"
	"strings"

	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

const (
	participantSeparator = "|"
	subjectSeparator     = "#"
	maxSubjectSlugLength = 50
)

var (
	subjectStripPattern  = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
	hyphenRunPattern     = regexp.MustCompile(`-+`)
)

// DeriveConversationID computes the canonical id for a conversation
// between two users. The participants are sorted, so the id does not
// depend on who messaged first; the normalized subject keeps threads on
// different subjects apart. Pure: same inputs, same id, always.
func DeriveConversationID(a, b uuid.UUID, subject string) (string, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return "", utils.NewValidationError("participant", "participant ids must be set")
	}

	first, second := a.String(), b.String()
	if second < first {
		first, second = second, first
	}

	id := first + participantSeparator + second
	if slug := NormalizeSubject(subject); slug != "" {
		id += subjectSeparator + slug
	}
	return id, nil
}

// NormalizeSubject turns free-form subject text into a bounded slug.
// Whitespace-only subjects normalize to "" and are treated as no subject.
func NormalizeSubject(subject string) string {
	s := strings.ToLower(subject)
	s = subjectStripPattern.ReplaceAllString(s, "")
	s = whitespaceRunPattern.ReplaceAllString(s, "-")
	s = hyphenRunPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSubjectSlugLength {
		s = strings.TrimRight(s[:maxSubjectSlugLength], "-")
	}
	return s
}

// Snippet truncates content for denormalized previews, marking the cut
// with an ellipsis.
func Snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
