package plan

import (
	"regexp"
	"strings"
)

type labelRule struct {
	re    *regexp.Regexp
	apply func(n *Node, m []string)
}

// labelRules are tried in order; the first match wins.
var labelRules = []labelRule{
	{
		re: regexp.MustCompile(`^((?:Parallel\s+)?(?:Seq\sScan|Tid.*Scan|Bitmap\s+Heap\s+Scan|(?:Async\s+)?Foreign\s+Scan|Update|Insert|Delete))\son\s(\S+)(?:\s+(\S+))?$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.RelationName = m[2]
			n.Alias = m[3]
		},
	},
	{
		re: regexp.MustCompile(`^(Bitmap\s+Index\s+Scan)\son\s(\S+)$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.IndexName = m[2]
		},
	},
	{
		re: regexp.MustCompile(`^((?:Parallel\s+)?Index(?:\sOnly)?\sScan(?:\sBackward)?)\susing\s(\S+)\son\s(\S+)(?:\s+(\S+))?$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.IndexName = m[2]
			n.RelationName = m[3]
			n.Alias = m[4]
		},
	},
	{
		re: regexp.MustCompile(`^(CTE\sScan)\son\s(\S+)(?:\s+(\S+))?$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.CTEName = m[2]
			n.Alias = m[3]
		},
	},
	{
		re: regexp.MustCompile(`^(Function\sScan)\son\s(\S+)(?:\s+(\S+))?$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.FunctionName = m[2]
			n.Alias = m[3]
		},
	},
	{
		re: regexp.MustCompile(`^(Subquery\sScan)\son\s(.+)$`),
		apply: func(n *Node, m []string) {
			n.OperatorType = m[1]
			n.Alias = m[2]
		},
	},
}

var (
	parallelRe     = regexp.MustCompile(`^Parallel\s+(.*)$`)
	joinRe         = regexp.MustCompile(`^(.*)\sJoin$`)
	joinModifierRe = regexp.MustCompile(`^(.*)\s+(Full|Left|Right|Anti)\sJoin$`)
)

func (n *Node) classify(label string) {
	n.OperatorType = label
	for _, rule := range labelRules {
		if m := rule.re.FindStringSubmatch(label); m != nil {
			rule.apply(n, m)
			break
		}
	}

	if m := parallelRe.FindStringSubmatch(n.OperatorType); m != nil {
		n.OperatorType = m[1]
		n.ParallelAware = true
	}

	if !joinRe.MatchString(n.OperatorType) {
		return
	}
	if m := joinModifierRe.FindStringSubmatch(n.OperatorType); m != nil {
		n.OperatorType = strings.TrimSpace(m[1]) + " Join"
		n.JoinType = m[2]
	}
}
