package response

import "strings"

const (
	jsonOpener = "```json"
	fence      = "```"
)

// Normalize strips a leading ```json opener and a trailing ``` fence from
// raw model output, along with surrounding whitespace. Repeated openers or
// fences at either end are all removed, so Normalize(Normalize(s)) ==
// Normalize(s). Fences inside the payload are left untouched.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		before := s
		if strings.HasPrefix(s, jsonOpener) {
			s = strings.TrimSpace(s[len(jsonOpener):])
		}
		if strings.HasSuffix(s, fence) {
			s = strings.TrimSpace(s[:len(s)-len(fence)])
		}
		if s == before {
			return s
		}
	}
}
