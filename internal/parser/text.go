package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/jacobarthurs/plantree/internal/plan"
)

const (
	estimateExpr = `\(cost=(\d+\.\d+)\.\.(\d+\.\d+)\s+rows=(\d+)\s+width=(\d+)\)`
	actualExpr   = `(?:actual\stime=(\d+\.\d+)\.\.(\d+\.\d+)\srows=(\d+)\sloops=(\d+)|actual\srows=(\d+)\sloops=(\d+)|(never\s+executed))`
)

// Groups of nodeLineRe:
//
//	1 prefix, 2 type
//	3-6  estimate (startup, total, rows, width)    with actuals
//	7-10 actual (first, last, rows, loops)         with estimate
//	11-12 actual (rows, loops)                     with estimate
//	13 never executed                              with estimate
//	14-17 estimate only
//	18-21, 22-23, 24 the actual alternatives alone
var nodeLineRe = regexp.MustCompile(
	`^(\s*->\s*|\s*)([^\r\n\t\f\v:(]*?)\s*` +
		`(?:(?:` + estimateExpr + `\s+\(` + actualExpr + `\))` +
		`|(?:` + estimateExpr + `)` +
		`|(?:\(` + actualExpr + `\)))` +
		`\s*$`)

var (
	emptyLineRe    = regexp.MustCompile(`^\s*$`)
	headerLineRe   = regexp.MustCompile(`^\s*(QUERY|---|#).*$`)
	subPlanLineRe  = regexp.MustCompile(`^(\s*)((?:Sub|Init)Plan)\s*(?:\d+\s*)?\s*(?:\(returns.*\)\s*)?$`)
	cteLineRe      = regexp.MustCompile(`^(\s*)CTE\s+(\S+)\s*$`)
	extraLineRe    = regexp.MustCompile(`^(\s*)(\S.*\S)\s*$`)
	trailingQuote  = regexp.MustCompile(`"\s*$`)
	leadingQuote   = regexp.MustCompile(`^\s*"`)
	trailingUnitMs = regexp.MustCompile(`(\s*ms)$`)
)

type elementKind int

const (
	kindNode elementKind = iota
	kindInitPlan
	kindSubPlan
)

type element struct {
	node *plan.Node
	kind elementKind
	name string
}

type depthEntry struct {
	depth int
	el    element
}

// textBuilder holds the state of one FromText call.
type textBuilder struct {
	logger  log.Logger
	content *plan.Node
	hasRoot bool
	stack   []depthEntry
}

// FromText parses line oriented EXPLAIN output into a content holder whose
// single child is the plan root.
func (p *Parser) FromText(text string) (*plan.Node, error) {
	b := &textBuilder{
		logger:  p.logger,
		content: plan.NewNode(""),
	}

	for _, line := range SplitIntoLines(text) {
		if err := b.addLine(line); err != nil {
			return nil, err
		}
	}

	if !b.hasRoot {
		return nil, errors.Wrap(plan.ErrMalformedPlan, "no plan node found in text")
	}
	return b.content, nil
}

func (b *textBuilder) addLine(line string) error {
	line = trailingQuote.ReplaceAllString(line, "")
	line = leadingQuote.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "\t", "    ")

	trimmed := strings.TrimLeftFunc(line, isSpace)
	depth := len([]rune(line)) - len([]rune(trimmed))
	line = trimmed

	if emptyLineRe.MatchString(line) || headerLineRe.MatchString(line) {
		return nil
	}

	subMatches := subPlanLineRe.FindStringSubmatch(line)
	cteMatches := cteLineRe.FindStringSubmatch(line)

	if m := nodeLineRe.FindStringSubmatch(line); m != nil && subMatches == nil && cteMatches == nil {
		b.addNode(depth, nodeFromMatch(m), line)
		return nil
	}

	if subMatches != nil {
		kind := kindSubPlan
		if subMatches[2] == "InitPlan" {
			kind = kindInitPlan
		}
		b.pushMarker(depth, kind, strings.TrimSpace(subMatches[0]))
		return nil
	}

	if cteMatches != nil {
		b.pushMarker(depth, kindInitPlan, "CTE "+cteMatches[2])
		return nil
	}

	if m := extraLineRe.FindStringSubmatch(line); m != nil {
		return b.addExtra(depth, line, m[2])
	}

	level.Debug(b.logger).Log("msg", "skipping unrecognized line", "line", line)
	return nil
}

func (b *textBuilder) addNode(depth int, node *plan.Node, line string) {
	if len(b.stack) == 0 {
		b.stack = append(b.stack, depthEntry{depth: depth, el: element{node: node, kind: kindNode}})
		b.content.Children = []*plan.Node{node}
		b.hasRoot = true
		return
	}

	b.prune(depth, false)
	parent, ok := b.top()
	if !ok || parent.node == nil {
		level.Debug(b.logger).Log("msg", "node line without parent", "line", line)
		return
	}

	b.stack = append(b.stack, depthEntry{depth: depth, el: element{node: node, kind: kindNode}})

	switch parent.kind {
	case kindInitPlan:
		node.ParentRelationship = "InitPlan"
		node.SubplanName = parent.name
	case kindSubPlan:
		node.ParentRelationship = "SubPlan"
		node.SubplanName = parent.name
	}
	parent.node.Children = append(parent.node.Children, node)
}

// pushMarker records a SubPlan, InitPlan or CTE heading. The marker owns no
// node of its own; it tags the next node line attached beneath it.
func (b *textBuilder) pushMarker(depth int, kind elementKind, name string) {
	b.prune(depth, false)
	var owner *plan.Node
	if parent, ok := b.top(); ok {
		owner = parent.node
	}
	b.stack = append(b.stack, depthEntry{depth: depth, el: element{node: owner, kind: kind, name: name}})
}

func (b *textBuilder) addExtra(depth int, line, text string) error {
	// depth 1 lines are plan-wide (planning, execution time) even when the
	// root node sits at depth 0
	b.prune(depth, depth == 1)

	target := b.content
	if parent, ok := b.top(); ok {
		if parent.node == nil {
			return nil
		}
		target = parent.node
	}

	if target == b.content && !b.hasRoot {
		if q, ok := target.Props[plan.PropQueryText].(string); ok {
			target.Set(plan.PropQueryText, q+"\n"+line)
			return nil
		}
	}

	key, value, found := strings.Cut(text, ": ")
	if !found || value == "" {
		return nil
	}

	handled, err := parseExtraInfo(text, target)
	if err != nil || handled {
		return err
	}

	setGeneric(target, key, value)
	return nil
}

func (b *textBuilder) prune(depth int, all bool) {
	if all {
		b.stack = b.stack[:0]
		return
	}
	kept := b.stack[:0]
	for _, e := range b.stack {
		if e.depth < depth {
			kept = append(kept, e)
		}
	}
	b.stack = kept
}

func (b *textBuilder) top() (element, bool) {
	if len(b.stack) == 0 {
		return element{}, false
	}
	return b.stack[len(b.stack)-1].el, true
}

func nodeFromMatch(m []string) *plan.Node {
	n := plan.NewNode(strings.TrimSpace(m[2]))

	if startup, total := first(m, 3, 14), first(m, 4, 15); startup != "" && total != "" {
		n.StartupCost = parseFloat(startup)
		n.TotalCost = parseFloat(total)
		n.PlanRows = parseInt(first(m, 5, 16))
		n.PlanWidth = parseInt(first(m, 6, 17))
	}

	if firstRow, last := first(m, 7, 18), first(m, 8, 19); firstRow != "" && last != "" {
		n.ActualStartupTime = parseFloat(firstRow)
		n.ActualTime = parseFloat(last)
	}

	for _, pair := range [][2]int{{9, 10}, {11, 12}, {20, 21}, {22, 23}} {
		if m[pair[0]] != "" && m[pair[1]] != "" {
			n.ActualRows = parseInt(m[pair[0]])
			n.ActualLoops = parseInt(m[pair[1]])
			break
		}
	}

	if first(m, 13, 24) != "" {
		n.ActualLoops = plan.Int(0)
		n.ActualRows = plan.Int(0)
		n.ActualTime = plan.Float(0)
	}

	return n
}

func first(m []string, idx ...int) string {
	for _, i := range idx {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(s string) *int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &i
}
