// Package detail extracts a single-line, human-meaningful summary from a
// tool's structured argument JSON.
package detail

import (
	"regexp"
	"strings"

	"github.com/buger/jsonparser"
)

// fields is the priority order for detail extraction. The first populated
// string field wins.
var fields = []string{
	"command",
	"file_path",
	"path",
	"pattern",
	"url",
	"query",
	"description",
	"prompt",
}

// FromArgs returns a one-line summary of the given argument JSON, or "" when
// the JSON is malformed or carries none of the known fields. Values from the
// "command" field are redacted before being returned.
func FromArgs(args []byte) string {
	for _, field := range fields {
		val, err := jsonparser.GetString(args, field)
		if err != nil || val == "" {
			continue
		}
		val = firstLine(val)
		if val == "" {
			continue
		}
		if field == "command" {
			val = Redact(val)
		}
		return val
	}
	return ""
}

// firstLine returns s up to (not including) its first line terminator.
// A multi-line value is summarized by its first line only.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var (
	assignRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)
	bearerRe = regexp.MustCompile(`(?i)\b(bearer)\s+\S+`)
)

// Redact masks secret-shaped tokens in a shell command string:
// NAME=value assignments and bearer-token headers.
func Redact(s string) string {
	s = assignRe.ReplaceAllString(s, "$1=***")
	s = bearerRe.ReplaceAllString(s, "$1 ***")
	return s
}
