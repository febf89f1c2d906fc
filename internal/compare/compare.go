// Package compare diffs two parsed plans node by node.
package compare

import (
	"github.com/jacobarthurs/plantree/internal/plan"
)

type Comparator struct {
	Threshold float64
}

func (c *Comparator) Compare(old, new *plan.Plan) Result {
	rootDelta := c.diffNodes(old.Content, new.Content)

	oldTime, newTime := floatValue(old.Stats.ExecutionTime), floatValue(new.Stats.ExecutionTime)
	oldDur, newDur := floatValue(old.Stats.MaxDuration), floatValue(new.Stats.MaxDuration)

	summary := Summary{
		OldNodeCount: countNodes(old),
		NewNodeCount: countNodes(new),

		OldMaxDuration: oldDur,
		NewMaxDuration: newDur,
		DurationPct:    pctChange(oldDur, newDur),
		DurationDir:    c.direction(oldDur, newDur, true),

		OldExecutionTime: oldTime,
		NewExecutionTime: newTime,
		TimeDelta:        newTime - oldTime,
		TimePct:          pctChange(oldTime, newTime),
		TimeDir:          c.direction(oldTime, newTime, true),

		OldMaxRows: intValue(old.Stats.MaxRows),
		NewMaxRows: intValue(new.Stats.MaxRows),
	}

	deltas := []NodeDelta{rootDelta}
	deltas = append(deltas, c.diffChildren(old.CTEs, new.CTEs)...)
	for i := range deltas {
		countChanges(&deltas[i], &summary)
	}
	summary.Verdict = verdict(summary)

	return Result{
		Deltas:  deltas,
		Summary: summary,
	}
}

func countChanges(delta *NodeDelta, summary *Summary) {
	switch delta.ChangeType {
	case Added:
		summary.NodesAdded++
	case Removed:
		summary.NodesRemoved++
	case Modified:
		summary.NodesModified++
	case TypeChanged:
		summary.NodesTypeChanged++
	}
	summary.FieldsChanged += len(delta.Fields)

	for i := range delta.Children {
		countChanges(&delta.Children[i], summary)
	}
}

func countNodes(p *plan.Plan) int {
	n := len(p.Content.Flatten())
	for _, cte := range p.CTEs {
		n += len(cte.Flatten())
	}
	return n
}

func verdict(s Summary) string {
	structural := s.NodesAdded + s.NodesRemoved + s.NodesTypeChanged + s.FieldsChanged
	dir := s.TimeDir
	if s.OldExecutionTime == 0 && s.NewExecutionTime == 0 {
		dir = s.DurationDir
	}

	switch {
	case structural == 0 && s.NodesModified == 0:
		return "no significant change"
	case dir == Improved:
		return "faster"
	case dir == Regressed:
		return "slower"
	case structural > 0:
		return "plan shape changed, timing unchanged"
	default:
		return "minor node-level changes"
	}
}
