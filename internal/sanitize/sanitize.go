// Package sanitize strips markup from user-supplied profile text before it is
// stored. Profiles are rendered by a browser front end, so bio, skills and
// interests must never carry HTML.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer removes every HTML element and attribute. It is safe for
// concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// maxPasses bounds Text for pathological multiply-escaped input.
const maxPasses = 4

// Text returns in with tags removed and surrounding whitespace trimmed.
//
// bluemonday escapes the text it keeps ("&" becomes "&amp;"). Stored values
// are plain text, so the entities are decoded again. Decoding can expose
// markup that was written as entities ("&lt;b&gt;"), so the two steps repeat
// until the value stops changing.
func (s *Sanitizer) Text(in string) string {
	out := in
	for range maxPasses {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(s.policy.Sanitize(out))
}

// List sanitizes each item and drops the ones left empty.
func (s *Sanitizer) List(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if clean := s.Text(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
