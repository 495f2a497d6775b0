package framework

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MatchGlob reports whether value matches pattern. Patterns follow
// filepath.Match and additionally accept '**' for any number of directories.
// Both sides are compared in slash form.
func MatchGlob(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	pattern = filepath.ToSlash(pattern)
	value = filepath.ToSlash(value)
	if !strings.Contains(pattern, "**") {
		ok, err := filepath.Match(pattern, value)
		return err == nil && ok
	}
	regex, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return false
	}
	return regex.MatchString(value)
}

// MatchAnyGlob reports whether value matches one of patterns.
func MatchAnyGlob(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if MatchGlob(pattern, value) {
			return true
		}
	}
	return false
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch ch {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// "**/" also matches zero directories.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '[', ']', '{', '}', '\\':
			b.WriteRune('\\')
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteString("$")
	return b.String()
}
