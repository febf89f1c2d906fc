package plan

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const idPrefix = "plan_"

var innerSpaceRe = regexp.MustCompile(`(\S)(\s{2,})`)

// New builds a Plan from a content holder produced by one of the parsers.
// Top-level siblings that precede the last child are kept as CTEs.
func New(name string, content *Node, query string, createdOn time.Time) (*Plan, error) {
	if content == nil || len(content.Children) == 0 {
		return nil, errors.Wrap(ErrMalformedPlan, "plan has no nodes")
	}

	if name == "" {
		name = "plan created on " + createdOn.Format("Mon Jan 02 2006")
	}

	last := len(content.Children) - 1
	p := &Plan{
		ID:        idPrefix + strconv.FormatInt(createdOn.UnixMilli(), 10),
		Name:      name,
		CreatedOn: createdOn,
		Query:     normalizeQuery(query),
		Content:   content.Children[last],
		CTEs:      content.Children[:last],
		Props:     content.Props,
		JITTiming: content.Timing,
	}

	assignIDs(p)
	CalculateMaximums(p)
	CalculateExecutionTime(p)

	return p, nil
}

func assignIDs(p *Plan) {
	next := 1
	visit := func(n *Node) bool {
		n.ID = next
		next++
		return true
	}
	p.Content.Walk(visit)
	for _, cte := range p.CTEs {
		cte.Walk(visit)
	}
}

// normalizeQuery collapses runs of whitespace inside a line to a single space,
// leaving line breaks and indentation after them alone.
func normalizeQuery(q string) string {
	return innerSpaceRe.ReplaceAllStringFunc(q, func(m string) string {
		_, size := utf8.DecodeRuneInString(m)
		if m[size] == '\n' || m[size] == '\r' {
			return m
		}
		return m[:size] + " "
	})
}
