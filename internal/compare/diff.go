package compare

import (
	"math"
	"strconv"

	"github.com/jacobarthurs/plantree/internal/plan"
)

func (c *Comparator) diffNodes(old, new *plan.Node) NodeDelta {
	delta := NodeDelta{
		Relation: coalesce(old.RelationName, new.RelationName),
	}

	if old.OperatorType != new.OperatorType {
		delta.ChangeType = TypeChanged
		delta.OldNodeType = old.OperatorType
		delta.NewNodeType = new.OperatorType
		delta.NodeType = new.OperatorType
	} else {
		delta.ChangeType = Modified
		delta.NodeType = old.OperatorType
		delta.Fields = diffFields(old, new)
	}

	oldCost, newCost := floatValue(old.TotalCost), floatValue(new.TotalCost)
	delta.OldCost = oldCost
	delta.NewCost = newCost
	delta.CostDelta = newCost - oldCost
	delta.CostPct = pctChange(oldCost, newCost)
	delta.CostDir = c.direction(oldCost, newCost, true)

	oldTime, newTime := floatValue(old.ActualTime), floatValue(new.ActualTime)
	delta.OldTime = oldTime
	delta.NewTime = newTime
	delta.TimeDelta = newTime - oldTime
	delta.TimePct = pctChange(oldTime, newTime)
	delta.TimeDir = c.direction(oldTime, newTime, true)

	delta.OldRows = intValue(old.ActualRows)
	delta.NewRows = intValue(new.ActualRows)
	delta.RowsDelta = delta.NewRows - delta.OldRows
	delta.RowsPct = pctChange(float64(delta.OldRows), float64(delta.NewRows))

	delta.OldLoops = intValue(old.ActualLoops)
	delta.NewLoops = intValue(new.ActualLoops)

	delta.OldSortSpill = old.SortSpaceType == "Disk"
	delta.NewSortSpill = new.SortSpaceType == "Disk"

	if delta.ChangeType == Modified && !c.isSignificant(delta) {
		delta.ChangeType = NoChange
	}

	delta.Children = c.diffChildren(old.Children, new.Children)

	return delta
}

func (c *Comparator) diffChildren(oldKids, newKids []*plan.Node) []NodeDelta {
	var deltas []NodeDelta

	for i := range max(len(oldKids), len(newKids)) {
		if i >= len(oldKids) {
			deltas = append(deltas, addedNode(newKids[i]))
			continue
		}
		if i >= len(newKids) {
			deltas = append(deltas, removedNode(oldKids[i]))
			continue
		}
		deltas = append(deltas, c.diffNodes(oldKids[i], newKids[i]))
	}

	return deltas
}

func addedNode(node *plan.Node) NodeDelta {
	delta := NodeDelta{
		ChangeType: Added,
		NodeType:   node.OperatorType,
		Relation:   node.RelationName,
		NewCost:    floatValue(node.TotalCost),
		NewTime:    floatValue(node.ActualTime),
		NewRows:    intValue(node.ActualRows),
	}

	for _, child := range node.Children {
		delta.Children = append(delta.Children, addedNode(child))
	}

	return delta
}

func removedNode(node *plan.Node) NodeDelta {
	delta := NodeDelta{
		ChangeType: Removed,
		NodeType:   node.OperatorType,
		Relation:   node.RelationName,
		OldCost:    floatValue(node.TotalCost),
		OldTime:    floatValue(node.ActualTime),
		OldRows:    intValue(node.ActualRows),
	}

	for _, child := range node.Children {
		delta.Children = append(delta.Children, removedNode(child))
	}

	return delta
}

// classifiedFields are the label-derived fields two isomorphic plans share.
var classifiedFields = []struct {
	name string
	get  func(*plan.Node) string
}{
	{"relation", func(n *plan.Node) string { return n.RelationName }},
	{"alias", func(n *plan.Node) string { return n.Alias }},
	{"index", func(n *plan.Node) string { return n.IndexName }},
	{"cte", func(n *plan.Node) string { return n.CTEName }},
	{"function", func(n *plan.Node) string { return n.FunctionName }},
	{"join type", func(n *plan.Node) string { return n.JoinType }},
	{"parallel", func(n *plan.Node) string { return strconv.FormatBool(n.ParallelAware) }},
	{"parent relationship", func(n *plan.Node) string { return n.ParentRelationship }},
	{"subplan", func(n *plan.Node) string { return n.SubplanName }},
}

func diffFields(old, new *plan.Node) []FieldChange {
	var changes []FieldChange
	for _, f := range classifiedFields {
		if o, n := f.get(old), f.get(new); o != n {
			changes = append(changes, FieldChange{Field: f.name, Old: o, New: n})
		}
	}
	return changes
}

func (c *Comparator) isSignificant(d NodeDelta) bool {
	if len(d.Fields) > 0 {
		return true
	}
	if math.Abs(d.CostPct) > c.Threshold {
		return true
	}
	if math.Abs(d.TimePct) > c.Threshold {
		return true
	}
	if d.OldSortSpill != d.NewSortSpill {
		return true
	}
	return false
}

func (c *Comparator) direction(old, new float64, lowerPreference bool) Direction {
	if math.Abs(pctChange(old, new)) < c.Threshold {
		return Unchanged
	}
	if lowerPreference {
		if new < old {
			return Improved
		}
		return Regressed
	}
	if new > old {
		return Improved
	}
	return Regressed
}

func pctChange(old, new float64) float64 {
	if old == 0 {
		if new == 0 {
			return 0
		}
		return 100
	}
	return ((new - old) / old) * 100
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intValue(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
