package server

import (
	"strconv"
	"strings"
)

// parseSessionPath splits "/api/sessions/{code}[/...]" into the join code
// and the remaining action segments.
func parseSessionPath(path string) (string, []string, bool) {
	const prefix = "/api/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return "", nil, false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

// parseQuestionAnswersPath matches "questions/{id}/answers" action segments.
func parseQuestionAnswersPath(segments []string) (uint, bool) {
	if len(segments) != 3 || segments[0] != "questions" || segments[2] != "answers" {
		return 0, false
	}
	id, err := strconv.ParseUint(segments[1], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseWebsocketPath(path string) (string, bool) {
	const prefix = "/ws/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
