package util

import (
	"strings"
)

// ExtractJSON returns the JSON document embedded in model output. Markdown
// code fences (``` or ```json) are stripped; otherwise the outermost object
// or array delimited by the first opening and last matching closing bracket
// is returned. The input is returned trimmed when no delimiters are found.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)

	if start := strings.Index(s, "```"); start >= 0 {
		rest := s[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			// drop the language tag on the fence line
			if tag := strings.TrimSpace(rest[:nl]); !strings.ContainsAny(tag, "{[") {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	open := strings.IndexAny(s, "{[")
	if open < 0 {
		return s
	}
	closer := byte('}')
	if s[open] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < open {
		return s
	}
	return s[open : end+1]
}
