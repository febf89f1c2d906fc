package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jacobarthurs/plantree/internal/compare"
	"github.com/jacobarthurs/plantree/internal/plan"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func RenderPlanText(w io.Writer, p *plan.Plan) error {
	tw := &textWriter{w: w}
	s := p.Stats

	tw.printf("%s%sPlan Summary%s\n\n", colorBold, colorCyan, colorReset)
	tw.printf("  Name:           %s\n", p.Name)
	tw.printf("  ID:             %s\n", p.ID)
	if s.ExecutionTime != nil {
		tw.printf("  Execution Time: %.3f ms\n", *s.ExecutionTime)
	}
	if v, ok := p.Props[plan.PropPlanningTime]; ok {
		tw.printf("  Planning Time:  %v ms\n", v)
	}
	if s.MaxDuration != nil {
		tw.printf("  Max Duration:   %.3f ms\n", *s.MaxDuration)
	}
	if s.MaxRows != nil {
		tw.printf("  Max Rows:       %s\n", humanize.Comma(*s.MaxRows))
	}
	if s.MaxEstimatedRows != nil {
		tw.printf("  Max Estimate:   %s\n", humanize.Comma(*s.MaxEstimatedRows))
	}
	if s.MaxRowsScanned != nil {
		tw.printf("  Max Scanned:    %s\n", humanize.Comma(*s.MaxRowsScanned))
	}
	if s.MaxResult != nil && *s.MaxResult >= 0 {
		tw.printf("  Max Result:     %s\n", humanize.Bytes(uint64(*s.MaxResult)))
	}
	if total, ok := p.JITTiming["Total"]; ok {
		tw.printf("  JIT Total:      %.3f ms\n", total)
	}
	tw.printf("\n")

	if p.Query != "" {
		tw.printf("%s%sQuery%s\n\n", colorBold, colorCyan, colorReset)
		for line := range strings.SplitSeq(p.Query, "\n") {
			tw.printf("  %s%s%s\n", colorDim, line, colorReset)
		}
		tw.printf("\n")
	}

	tw.printf("%s%sPlan%s\n\n", colorBold, colorCyan, colorReset)
	tw.renderNode(p.Content, 0)

	if len(p.CTEs) > 0 {
		tw.printf("\n%s%sCTEs (%d)%s\n\n", colorBold, colorCyan, len(p.CTEs), colorReset)
		for _, cte := range p.CTEs {
			tw.renderNode(cte, 0)
		}
	}

	return tw.err
}

func (tw *textWriter) renderNode(n *plan.Node, depth int) {
	indent := strings.Repeat("   ", depth)
	arrow := ""
	if depth > 0 {
		arrow = "-> "
	}

	if n.SubplanName != "" {
		tw.printf("  %s%s%s%s\n", indent, colorDim, n.SubplanName, colorReset)
	}
	tw.printf("  %s%s%s[%d] %s%s", indent, arrow, colorBold, n.ID, planNodeLabel(n), colorReset)
	if n.TotalCost != nil {
		tw.printf(" (cost=%.2f", *n.TotalCost)
		if n.PlanRows != nil {
			tw.printf(" rows=%s", humanize.Comma(*n.PlanRows))
		}
		tw.printf(")")
	}
	switch {
	case n.ActualLoops != nil && *n.ActualLoops == 0:
		tw.printf(" %s(never executed)%s", colorDim, colorReset)
	case n.ActualTime != nil || n.ActualRows != nil:
		tw.printf(" (actual")
		if n.ActualTime != nil {
			tw.printf(" time=%.3fms", *n.ActualTime)
		}
		if n.ActualRows != nil {
			tw.printf(" rows=%s", humanize.Comma(*n.ActualRows))
		}
		if n.ActualLoops != nil {
			tw.printf(" loops=%d", *n.ActualLoops)
		}
		tw.printf(")")
	}
	tw.printf("\n")

	if len(n.SortKey) > 0 {
		tw.printf("  %s   %sSort Key: %s%s\n", indent, colorDim, strings.Join(n.SortKey, ", "), colorReset)
	}
	if n.SortMethod != "" && n.SortSpaceUsed != nil {
		color := colorDim
		if strings.EqualFold(n.SortSpaceType, "Disk") {
			color = colorYellow
		}
		tw.printf("  %s   %sSort Method: %s  %s: %s%s\n", indent, color, n.SortMethod, n.SortSpaceType,
			humanize.IBytes(uint64(max(*n.SortSpaceUsed, 0))*1024), colorReset)
	}

	for _, child := range n.Children {
		tw.renderNode(child, depth+1)
	}
}

func planNodeLabel(n *plan.Node) string {
	label := n.OperatorType
	if n.ParallelAware && !strings.HasPrefix(label, "Parallel") {
		label = "Parallel " + label
	}
	if n.JoinType != "" && n.JoinType != "Inner" {
		label += " (" + n.JoinType + ")"
	}
	switch {
	case n.IndexName != "" && n.RelationName != "":
		label += fmt.Sprintf(" using %s on %s", n.IndexName, n.RelationName)
	case n.IndexName != "":
		label += " on " + n.IndexName
	case n.RelationName != "":
		label += " on " + n.RelationName
	case n.CTEName != "":
		label += " on " + n.CTEName
	case n.FunctionName != "":
		label += " on " + n.FunctionName
	}
	if n.Alias != "" && n.Alias != n.RelationName {
		label += " " + n.Alias
	}
	return label
}

func RenderComparisonText(w io.Writer, result compare.Result) error {
	tw := &textWriter{w: w}
	s := result.Summary

	tw.printf("%s%sSummary%s\n\n", colorBold, colorCyan, colorReset)
	if s.OldExecutionTime > 0 || s.NewExecutionTime > 0 {
		tw.printf("  Execution Time: %s\n", formatDelta(s.OldExecutionTime, s.NewExecutionTime, s.TimePct, s.TimeDir, "%.3f ms"))
	}
	if s.OldMaxDuration > 0 || s.NewMaxDuration > 0 {
		tw.printf("  Max Duration:   %s\n", formatDelta(s.OldMaxDuration, s.NewMaxDuration, s.DurationPct, s.DurationDir, "%.3f ms"))
	}
	tw.printf("  Nodes:          %d → %d\n", s.OldNodeCount, s.NewNodeCount)
	if s.OldMaxRows != s.NewMaxRows {
		tw.printf("  Max Rows:       %s → %s\n", humanize.Comma(s.OldMaxRows), humanize.Comma(s.NewMaxRows))
	}
	tw.printf("\n")

	changes := s.NodesAdded + s.NodesRemoved + s.NodesModified + s.NodesTypeChanged + s.FieldsChanged
	if changes == 0 {
		tw.printf("%s%sPlans are identical.%s\n", colorBold, colorGreen, colorReset)
		return tw.err
	}

	tw.printf("  Changes: %d modified, %d type changed, %d added, %d removed, %d fields\n\n",
		s.NodesModified, s.NodesTypeChanged, s.NodesAdded, s.NodesRemoved, s.FieldsChanged)

	tw.printf("%s%sNode Details%s\n\n", colorBold, colorCyan, colorReset)

	for _, delta := range result.Deltas {
		tw.renderDelta(delta, 0)
	}

	tw.renderVerdict(s)

	return tw.err
}

func (tw *textWriter) renderDelta(d compare.NodeDelta, depth int) {
	indent := strings.Repeat("  ", depth+1)

	switch d.ChangeType {
	case compare.NoChange:
		if len(d.Fields) > 0 {
			tw.printf("%s%s~ %s%s\n", indent, colorYellow, nodeLabel(d), colorReset)
			tw.renderFieldChanges(indent, d)
		}
		for _, child := range d.Children {
			tw.renderDelta(child, depth)
		}
		return
	case compare.Added:
		tw.renderAddedNode(indent, d)
	case compare.Removed:
		tw.renderRemovedNode(indent, d)
	case compare.TypeChanged:
		tw.printf("%s%s~ %s → %s%s", indent, colorYellow, d.OldNodeType, d.NewNodeType, colorReset)
		if d.Relation != "" {
			tw.printf(" on %s", d.Relation)
		}
		tw.printf("\n")
		tw.renderMetrics(indent, d)
	case compare.Modified:
		tw.printf("%s%s~ %s%s\n", indent, colorYellow, nodeLabel(d), colorReset)
		tw.renderMetrics(indent, d)
	}

	for _, child := range d.Children {
		tw.renderDelta(child, depth+1)
	}
}

func (tw *textWriter) renderAddedNode(indent string, d compare.NodeDelta) {
	tw.printf("%s%s+ %s%s", indent, colorGreen, nodeLabel(d), colorReset)
	tw.printf(" (cost=%.2f", d.NewCost)
	if d.NewTime > 0 {
		tw.printf(" time=%.3fms", d.NewTime)
	}
	tw.printf(")\n")
}

func (tw *textWriter) renderRemovedNode(indent string, d compare.NodeDelta) {
	tw.printf("%s%s- %s%s", indent, colorRed, nodeLabel(d), colorReset)
	tw.printf(" (cost=%.2f", d.OldCost)
	if d.OldTime > 0 {
		tw.printf(" time=%.3fms", d.OldTime)
	}
	tw.printf(")\n")
}

func (tw *textWriter) renderMetrics(indent string, d compare.NodeDelta) {
	if d.OldCost != d.NewCost {
		tw.renderMetricLine(indent, "cost", d.OldCost, d.NewCost, d.CostPct, d.CostDir, "%.2f")
	}
	if d.OldTime > 0 || d.NewTime > 0 {
		tw.renderMetricLine(indent, "time", d.OldTime, d.NewTime, d.TimePct, d.TimeDir, "%.3f ms")
	}
	if d.OldRows != d.NewRows {
		tw.printf("%s  rows: %s → %s (%+.1f%%)\n", indent, humanize.Comma(d.OldRows), humanize.Comma(d.NewRows), d.RowsPct)
	}
	if d.OldLoops != d.NewLoops && (d.OldLoops > 1 || d.NewLoops > 1) {
		tw.printf("%s  loops: %d → %d\n", indent, d.OldLoops, d.NewLoops)
	}
	if d.OldSortSpill != d.NewSortSpill {
		if d.NewSortSpill {
			tw.printf("%s  %ssort: memory → disk ↑%s\n", indent, colorRed, colorReset)
		} else {
			tw.printf("%s  %ssort: disk → memory ↓%s\n", indent, colorGreen, colorReset)
		}
	}
	tw.renderFieldChanges(indent, d)
}

func (tw *textWriter) renderFieldChanges(indent string, d compare.NodeDelta) {
	for _, f := range d.Fields {
		switch {
		case f.Old == "":
			tw.printf("%s  %s%s added: %s%s\n", indent, colorYellow, f.Field, f.New, colorReset)
		case f.New == "":
			tw.printf("%s  %s%s removed: %s%s\n", indent, colorYellow, f.Field, f.Old, colorReset)
		default:
			tw.printf("%s  %s%s: %s → %s%s\n", indent, colorYellow, f.Field, f.Old, f.New, colorReset)
		}
	}
}

func (tw *textWriter) renderMetricLine(indent, label string, oldVal, newVal, pct float64, dir compare.Direction, fmtStr string) {
	tw.printf("%s  %s: %s\n", indent, label, formatDelta(oldVal, newVal, pct, dir, fmtStr))
}

func formatDelta(oldVal, newVal, pct float64, dir compare.Direction, fmtStr string) string {
	color := dirColor(dir)
	arrow := dirArrow(dir)
	oldStr := fmt.Sprintf(fmtStr, oldVal)
	newStr := fmt.Sprintf(fmtStr, newVal)
	return fmt.Sprintf("%s → %s%s %s (%+.1f%%)%s", oldStr, color, newStr, arrow, pct, colorReset)
}

func dirColor(d compare.Direction) string {
	switch d {
	case compare.Improved:
		return colorGreen
	case compare.Regressed:
		return colorRed
	default:
		return ""
	}
}

func dirArrow(d compare.Direction) string {
	switch d {
	case compare.Improved:
		return "↓"
	case compare.Regressed:
		return "↑"
	default:
		return ""
	}
}

func (tw *textWriter) renderVerdict(s compare.Summary) {
	dir := s.TimeDir
	if s.OldExecutionTime == 0 && s.NewExecutionTime == 0 {
		dir = s.DurationDir
	}
	if color := dirColor(dir); color != "" {
		tw.printf("\n%sVerdict: %s%s\n", color, s.Verdict, colorReset)
	} else {
		tw.printf("\nVerdict: %s\n", s.Verdict)
	}
}

func nodeLabel(d compare.NodeDelta) string {
	if d.Relation != "" {
		return fmt.Sprintf("%s on %s", d.NodeType, d.Relation)
	}
	return d.NodeType
}
