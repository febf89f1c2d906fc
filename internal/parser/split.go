package parser

import "strings"

// SplitBalanced splits input on sep, ignoring separators nested inside
// (), [], {} or a quoted string. A backslash before a structural character
// keeps that character literally and drops the backslash. The trailing
// piece is always returned, so the result is never empty.
func SplitBalanced(input string, sep rune) []string {
	var (
		results []string
		buf     strings.Builder
		stack   []rune
	)

	top := func() rune {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1]
	}
	inQuote := func() bool {
		t := top()
		return t == '\'' || t == '"'
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && isStructural(runes[i+1], sep):
			i++
			buf.WriteRune(runes[i])
			continue
		case r == '\'' || r == '"':
			if top() == r {
				stack = stack[:len(stack)-1]
			} else if !inQuote() {
				stack = append(stack, r)
			}
		case inQuote():
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, r)
		case r == ')' || r == ']' || r == '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case r == sep && len(stack) == 0:
			results = append(results, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteRune(r)
	}

	return append(results, buf.String())
}

func isStructural(r, sep rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '\'', '"':
		return true
	}
	return r == sep
}
