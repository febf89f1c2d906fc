package plan

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CalculateMaximums fills the plan-level maxima from every node of the main
// tree and of each CTE. Order of traversal does not matter.
func CalculateMaximums(p *Plan) {
	flat := p.Content.Flatten()
	for _, cte := range p.CTEs {
		flat = append(flat, cte.Flatten()...)
	}

	p.Stats.MaxRows = maxInt(flat, func(n *Node) *int64 { return n.ActualRows })
	p.Stats.MaxRowsScanned = maxInt(flat, func(n *Node) *int64 { return n.RowsScanned })
	p.Stats.MaxResult = maxInt(flat, func(n *Node) *int64 { return n.ResultSetSize })
	p.Stats.MaxDuration = maxFloat(flat, func(n *Node) *float64 { return n.ActualTime })
	p.Stats.MaxEstimatedRows = maxEstimatedRows(flat)
}

// CalculateExecutionTime reads the top-level elapsed time when the report
// carried one. Without such a source ExecutionTime stays nil.
func CalculateExecutionTime(p *Plan) {
	if v, ok := p.Props[PropExecutionTime]; ok {
		if ms, ok := toFloat(v); ok {
			p.Stats.ExecutionTime = &ms
			return
		}
	}
	if v, ok := p.Props[PropLatency]; ok {
		if sec, ok := toFloat(v); ok {
			ms := sec * 1000
			p.Stats.ExecutionTime = &ms
		}
	}
}

func maxInt(nodes []*Node, field func(*Node) *int64) *int64 {
	var best *int64
	for _, n := range nodes {
		v := field(n)
		if v == nil {
			continue
		}
		if best == nil || *v > *best {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	return Int(*best)
}

func maxFloat(nodes []*Node, field func(*Node) *float64) *float64 {
	var best *float64
	for _, n := range nodes {
		v := field(n)
		if v == nil {
			continue
		}
		if best == nil || *v > *best {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	return Float(*best)
}

// maxEstimatedRows compares nodes by their parsed estimated cardinality,
// counting a missing value as zero, then parses the winner's raw value once.
func maxEstimatedRows(nodes []*Node) *int64 {
	var (
		winner    *Node
		best      int64
		winnerHas bool
	)
	for _, n := range nodes {
		key, has := parseCardinality(n.ExtraInfo[ExtraEstimatedRows])
		if winner == nil || key > best || (key == best && has && !winnerHas) {
			winner, best, winnerHas = n, key, has
		}
	}
	if winner == nil {
		return nil
	}
	v, ok := parseCardinality(winner.ExtraInfo[ExtraEstimatedRows])
	if !ok {
		return nil
	}
	return Int(v)
}

// parseCardinality reads the integer prefix of an estimated cardinality such
// as 100, "100" or "~100".
func parseCardinality(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(t), "~")
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0, false
		}
		i, err := strconv.ParseInt(s[:end], 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(t, "ms")), 64)
		return f, err == nil
	}
	return 0, false
}
