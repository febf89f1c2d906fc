package parser

import (
	"regexp"
	"strings"
)

var (
	lineBreakRe     = regexp.MustCompile(`\r?\n`)
	headerKeywordRe = regexp.MustCompile(`(?i)^(?:Total\s+runtime|Planning\s+time|Execution\s+time|Time|Filter|Output|JIT)`)
	outputLineRe    = regexp.MustCompile(`(?i)^\s*Output`)
	openParenLineRe = regexp.MustCompile(`^\s*\(`)
)

// SplitIntoLines splits text into logical lines, rejoining physical lines
// that a tool force-wrapped at some column width.
func SplitIntoLines(text string) []string {
	var out []string
	appendToLast := func(line string) {
		if len(out) == 0 {
			out = append(out, line)
			return
		}
		out[len(out)-1] += line
	}

	for _, line := range lineBreakRe.Split(text, -1) {
		switch {
		case strings.Count(line, ")") > strings.Count(line, "("):
			// unbalanced closing parenthesis: tail of the previous line
			appendToLast(line)
		case headerKeywordRe.MatchString(line):
			out = append(out, line)
		case startsNonBlank(line), openParenLineRe.MatchString(line), closingFirst(line):
			// only the first node line may start at column zero
			appendToLast(line)
		case len(out) > 0 && outputLineRe.MatchString(out[len(out)-1]) && !sameIndent(out[len(out)-1], line):
			appendToLast(line)
		default:
			out = append(out, line)
		}
	}
	return out
}

func startsNonBlank(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case ' ', '\t', '\f', '\v', '\r', '\n':
		return false
	}
	return true
}

func closingFirst(line string) bool {
	closing := strings.Index(line, ")")
	return closing != -1 && closing < strings.Index(line, "(")
}

func sameIndent(a, b string) bool {
	return indentOf(a) == indentOf(b)
}

func indentOf(s string) int {
	return strings.IndexFunc(s, func(r rune) bool {
		return !isSpace(r)
	})
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x85, 0xA0:
		return true
	}
	return false
}
