package engine

import (
	"strings"

	"github.com/jaa/rad/internal/failure"
)

// ParseVersion reads a line shaped like
// "rust-analyzer 0.4.1173-standalone (82ff74050 2022-08-17)".
func ParseVersion(line string) (LocalVersion, error) {
	line = strings.TrimSpace(line)

	var semantic string
	if fields := strings.Fields(line); len(fields) > 1 && !strings.HasPrefix(fields[1], "(") {
		semantic = fields[1]
	}
	if semantic == "" {
		return LocalVersion{}, &failure.ParseError{Input: line, Reason: "no semantic version"}
	}

	date := dateToken(line)
	if date == "" {
		return LocalVersion{}, &failure.ParseError{Input: line, Reason: "no date version"}
	}
	return LocalVersion{SemanticVersion: semantic, DateVersion: date}, nil
}

func dateToken(line string) string {
	open := strings.LastIndex(line, "(")
	if open < 0 {
		return ""
	}
	inner, _, found := strings.Cut(line[open+1:], ")")
	if !found {
		return ""
	}
	fields := strings.Fields(inner)
	if len(fields) < 2 {
		return ""
	}
	return fields[len(fields)-1]
}
