package parser

import (
	"regexp"
	"strings"
)

var borderChars = []string{"|", "║", "│"}

var separatorRes = []*regexp.Regexp{
	regexp.MustCompile(`^\+-+\+$`),
	regexp.MustCompile(`^[├╟╠╞](?:─+|═+)[┤╢╣╡]$`),
	regexp.MustCompile(`^└─+┘$`),
	regexp.MustCompile(`^╚═+╝$`),
	regexp.MustCompile(`^┌─+┐$`),
	regexp.MustCompile(`^╔═+╗$`),
}

var (
	plusContinuationRe = regexp.MustCompile(`\s*\+\r?\n`)
	arrowContinuation  = regexp.MustCompile(`↵\r?`)
	queryPlanHeaderRe  = regexp.MustCompile(`(?m)^\s*QUERY PLAN\s*\r?\n`)
	rowCountFooterRe   = regexp.MustCompile(`(?m)^\(\d+\s+\p{L}*\)(\r?\n|$)`)
)

// Cleanup strips the decoration terminals and tools wrap around a plan:
// table borders, rule lines, quoting, continuation markers, the QUERY PLAN
// header and the row count footer.
func Cleanup(source string) string {
	lines := strings.Split(source, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		line = stripBorders(line)
		if isSeparator(line) {
			continue
		}
		out = append(out, stripQuotes(line))
	}
	source = strings.Join(out, "\n")

	source = plusContinuationRe.ReplaceAllString(source, "\n")
	source = arrowContinuation.ReplaceAllString(source, "\n")

	if loc := queryPlanHeaderRe.FindStringIndex(source); loc != nil {
		source = source[:loc[0]] + source[loc[1]:]
	}

	return rowCountFooterRe.ReplaceAllString(source, "\n")
}

func stripBorders(line string) string {
	for _, b := range borderChars {
		if len(line) >= 2*len(b) && strings.HasPrefix(line, b) && strings.HasSuffix(line, b) {
			line = line[len(b) : len(line)-len(b)]
			break
		}
	}
	for _, b := range borderChars {
		if strings.HasSuffix(line, b) {
			return strings.TrimSuffix(line, b)
		}
	}
	return line
}

func isSeparator(line string) bool {
	if isRepeatedRule(line) {
		return true
	}
	for _, re := range separatorRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// isRepeatedRule reports lines made of two or more of the same rule glyph.
func isRepeatedRule(line string) bool {
	runes := []rune(line)
	if len(runes) < 2 {
		return false
	}
	first := runes[0]
	if first != '-' && first != '─' && first != '═' {
		return false
	}
	for _, r := range runes[1:] {
		if r != first {
			return false
		}
	}
	return true
}

func stripQuotes(line string) string {
	if len(line) < 2 {
		return line
	}
	q := line[0]
	if (q == '"' || q == '\'') && line[len(line)-1] == q {
		return line[1 : len(line)-1]
	}
	return line
}
