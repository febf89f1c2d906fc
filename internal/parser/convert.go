package parser

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jacobarthurs/plantree/internal/plan"
)

const (
	keyPlan      = "Plan"
	keyPlans     = "Plans"
	keyChildren  = "children"
	keyNodeType  = "Node Type"
	keyOperator  = "operator_type"
	keyExtraInfo = "extra_info"
)

// jsonFields maps producer keys onto the typed node fields. Both the DuckDB
// profiler names and the PostgreSQL EXPLAIN (FORMAT JSON) names are listed.
var jsonFields = map[string]func(n *plan.Node, v any){
	"operator_timing":       func(n *plan.Node, v any) { n.ActualTime = floatOf(v) },
	"operator_cardinality":  func(n *plan.Node, v any) { n.ActualRows = intOf(v) },
	"operator_rows_scanned": func(n *plan.Node, v any) { n.RowsScanned = intOf(v) },
	"result_set_size":       func(n *plan.Node, v any) { n.ResultSetSize = intOf(v) },
	"cpu_time":              func(n *plan.Node, v any) { n.CPUTime = floatOf(v) },

	"Actual Total Time":   func(n *plan.Node, v any) { n.ActualTime = floatOf(v) },
	"Actual Startup Time": func(n *plan.Node, v any) { n.ActualStartupTime = floatOf(v) },
	"Actual Rows":         func(n *plan.Node, v any) { n.ActualRows = intOf(v) },
	"Actual Loops":        func(n *plan.Node, v any) { n.ActualLoops = intOf(v) },
	"Startup Cost":        func(n *plan.Node, v any) { n.StartupCost = floatOf(v) },
	"Total Cost":          func(n *plan.Node, v any) { n.TotalCost = floatOf(v) },
	"Plan Rows":           func(n *plan.Node, v any) { n.PlanRows = intOf(v) },
	"Plan Width":          func(n *plan.Node, v any) { n.PlanWidth = intOf(v) },

	"Relation Name":       func(n *plan.Node, v any) { setString(&n.RelationName, v) },
	"Alias":               func(n *plan.Node, v any) { setString(&n.Alias, v) },
	"Index Name":          func(n *plan.Node, v any) { setString(&n.IndexName, v) },
	"CTE Name":            func(n *plan.Node, v any) { setString(&n.CTEName, v) },
	"Function Name":       func(n *plan.Node, v any) { setString(&n.FunctionName, v) },
	"Join Type":           func(n *plan.Node, v any) { setString(&n.JoinType, v) },
	"Parent Relationship": func(n *plan.Node, v any) { setString(&n.ParentRelationship, v) },
	"Subplan Name":        func(n *plan.Node, v any) { setString(&n.SubplanName, v) },
	"Parallel Aware": func(n *plan.Node, v any) {
		if b, ok := v.(bool); ok {
			n.ParallelAware = b
		}
	},

	"Sort Key":          func(n *plan.Node, v any) { n.SortKey = stringsOf(v) },
	"Presorted Key":     func(n *plan.Node, v any) { n.PresortedKey = stringsOf(v) },
	"Sort Method":       func(n *plan.Node, v any) { setString(&n.SortMethod, v) },
	"Sort Space Used":   func(n *plan.Node, v any) { n.SortSpaceUsed = intOf(v) },
	"Sort Space Type":   func(n *plan.Node, v any) { setString(&n.SortSpaceType, v) },
	"Full-sort Groups":  func(n *plan.Node, v any) { n.FullSortGroups = sortGroupsOf(v) },
	"Pre-sorted Groups": func(n *plan.Node, v any) { n.PreSortedGroups = sortGroupsOf(v) },

	keyExtraInfo: func(n *plan.Node, v any) {
		if m, ok := v.(map[string]any); ok {
			n.ExtraInfo = m
		}
	},
}

// ContentFromJSON converts a decoded document into a content holder. The
// holder's children are the top-level plan nodes; its Props carry the
// remaining top-level keys such as "Planning Time" or "latency".
func ContentFromJSON(root any) (*plan.Node, error) {
	doc, ok := root.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(plan.ErrMalformedPlan, "expected a JSON object, got %T", root)
	}

	holder := plan.NewNode("")

	switch {
	case isObject(doc[keyPlan]):
		holder.Children = []*plan.Node{nodeFromJSON(doc[keyPlan].(map[string]any))}
		setProps(holder, doc, keyPlan)
	case hasKey(doc, keyOperator) || hasKey(doc, keyNodeType):
		holder.Children = []*plan.Node{nodeFromJSON(doc)}
	default:
		holder.Children = childrenOf(doc[keyChildren])
		setProps(holder, doc, keyChildren)
	}

	if len(holder.Children) == 0 {
		return nil, errors.Wrap(plan.ErrMalformedPlan, "no plan node under the content key")
	}
	return holder, nil
}

func nodeFromJSON(obj map[string]any) *plan.Node {
	label, _ := obj[keyOperator].(string)
	if label == "" {
		label, _ = obj[keyNodeType].(string)
	}
	n := plan.NewNode(label)

	// sorted so that aliased keys resolve the same way on every run
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		v := obj[key]
		switch key {
		case keyOperator, keyNodeType:
		case keyChildren, keyPlans:
			n.Children = append(n.Children, childrenOf(v)...)
		default:
			if set, ok := jsonFields[key]; ok {
				set(n, v)
				continue
			}
			n.Set(key, v)
		}
	}
	return n
}

func childrenOf(v any) []*plan.Node {
	items, _ := v.([]any)
	var out []*plan.Node
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, nodeFromJSON(obj))
		}
	}
	return out
}

func setProps(n *plan.Node, doc map[string]any, skip string) {
	for key, v := range doc {
		if key != skip {
			n.Set(key, v)
		}
	}
}

func sortGroupsOf(v any) *plan.SortGroups {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	g := &plan.SortGroups{SortMethodsUsed: stringsOf(obj["Sort Methods Used"])}
	if c := intOf(obj["Group Count"]); c != nil {
		g.GroupCount = *c
	}
	if mem, ok := obj["Sort Space Memory"].(map[string]any); ok {
		if avg := intOf(mem["Average Sort Space Used"]); avg != nil {
			g.AverageSpaceKB = *avg
		}
		if peak := intOf(mem["Peak Sort Space Used"]); peak != nil {
			g.PeakSpaceKB = *peak
		}
	}
	return g
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func setString(dst *string, v any) {
	if s, ok := v.(string); ok && s != "" {
		*dst = s
	}
}

func stringsOf(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func floatOf(v any) *float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case float64:
		return &t
	case string:
		return parseFloat(t)
	}
	return nil
}

func intOf(v any) *int64 {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return &i
		}
		if f, err := t.Float64(); err == nil {
			i := int64(f)
			return &i
		}
	case float64:
		i := int64(t)
		return &i
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}
