package extraction

import "strings"

// keywordDelimiter separates entries inside the backend's single
// session_keywords string: two spaces followed by a newline.
const keywordDelimiter = "  \n"

// SplitKeywords turns the backend's delimited keyword string into a
// clean slice. Entries are trimmed and empties dropped; a malformed or
// empty input yields an empty slice, never an error.
func SplitKeywords(raw string) []string {
	keywords := []string{}
	for _, part := range strings.Split(raw, keywordDelimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}
