package openai

import "strings"

// stripCodeFences removes a markdown code fence wrapped around a response.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an info string such as ```text
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// cleanTranscription trims trailing spaces on every line and maps the
// no-text sentinel to an empty string.
func cleanTranscription(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	s = strings.TrimSpace(strings.Join(lines, "\n"))
	if isNoTextReply(s) {
		return ""
	}
	return s
}

// isNoTextReply reports whether a response is the no-text sentinel,
// ignoring case and surrounding punctuation.
func isNoTextReply(s string) bool {
	s = strings.Trim(s, ".!\"'` \n")
	return strings.EqualFold(s, noTextReply)
}
