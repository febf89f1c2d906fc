package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobarthurs/plantree/internal/plan"
)

const psqlHashJoin = `                          QUERY PLAN
-------------------------------------------------------------------------------------
 Hash Join  (cost=1.09..2.20 rows=3 width=8) (actual time=0.030..0.040 rows=3 loops=1)
   Hash Cond: (a.id = b.id)
   ->  Seq Scan on a  (cost=0.00..1.03 rows=3 width=4) (actual time=0.005..0.006 rows=3 loops=1)
   ->  Hash  (cost=1.04..1.04 rows=4 width=4) (actual time=0.010..0.010 rows=4 loops=1)
         Buckets: 1024  Batches: 1  Memory Usage: 9kB
         ->  Seq Scan on b  (cost=0.00..1.04 rows=4 width=4) (never executed)
 Planning Time: 0.123 ms
 Execution Time: 0.080 ms
(8 rows)
`

func fromText(t *testing.T, text string) *plan.Node {
	t.Helper()
	content, err := New().FromText(Cleanup(text))
	require.NoError(t, err)
	require.Len(t, content.Children, 1)
	return content
}

func TestFromText_Tree(t *testing.T) {
	content := fromText(t, psqlHashJoin)
	root := content.Children[0]

	assert.Equal(t, "Hash Join", root.OperatorType)
	assert.Equal(t, 1.09, *root.StartupCost)
	assert.Equal(t, 2.20, *root.TotalCost)
	assert.Equal(t, int64(3), *root.PlanRows)
	assert.Equal(t, int64(8), *root.PlanWidth)
	assert.Equal(t, 0.030, *root.ActualStartupTime)
	assert.Equal(t, 0.040, *root.ActualTime)
	assert.Equal(t, int64(3), *root.ActualRows)
	assert.Equal(t, int64(1), *root.ActualLoops)
	assert.Equal(t, "(a.id = b.id)", root.Props["Hash Cond"])

	require.Len(t, root.Children, 2)
	scanA, hash := root.Children[0], root.Children[1]
	assert.Equal(t, "Seq Scan", scanA.OperatorType)
	assert.Equal(t, "a", scanA.RelationName)
	assert.Empty(t, scanA.Children)

	assert.Equal(t, "Hash", hash.OperatorType)
	assert.Equal(t, "1024  Batches: 1  Memory Usage: 9kB", hash.Props["Buckets"])
	require.Len(t, hash.Children, 1)
	assert.Equal(t, "b", hash.Children[0].RelationName)

	assert.Equal(t, 0.123, content.Props[plan.PropPlanningTime])
	assert.Equal(t, 0.080, content.Props[plan.PropExecutionTime])
}

func TestFromText_NeverExecuted(t *testing.T) {
	content := fromText(t, psqlHashJoin)
	never := content.Children[0].Children[1].Children[0]

	require.NotNil(t, never.ActualRows)
	require.NotNil(t, never.ActualLoops)
	require.NotNil(t, never.ActualTime)
	assert.Equal(t, int64(0), *never.ActualRows)
	assert.Equal(t, int64(0), *never.ActualLoops)
	assert.Equal(t, 0.0, *never.ActualTime)
	assert.Nil(t, never.ActualStartupTime)

	// measured zero rows keeps its loop count
	measured := fromText(t, "Seq Scan on t  (cost=0.00..1.00 rows=1 width=4) (actual time=0.001..0.001 rows=0 loops=3)")
	assert.Equal(t, int64(0), *measured.Children[0].ActualRows)
	assert.Equal(t, int64(3), *measured.Children[0].ActualLoops)
}

func TestFromText_TupleAlternatives(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, n *plan.Node)
	}{
		{
			name: "estimate only",
			line: "Seq Scan on t  (cost=0.00..35.50 rows=2550 width=4)",
			check: func(t *testing.T, n *plan.Node) {
				assert.Equal(t, 35.50, *n.TotalCost)
				assert.Equal(t, int64(2550), *n.PlanRows)
				assert.Nil(t, n.ActualRows)
				assert.Nil(t, n.ActualTime)
			},
		},
		{
			name: "actual only",
			line: "Seq Scan on t (actual time=0.010..0.020 rows=7 loops=2)",
			check: func(t *testing.T, n *plan.Node) {
				assert.Nil(t, n.TotalCost)
				assert.Equal(t, 0.020, *n.ActualTime)
				assert.Equal(t, int64(7), *n.ActualRows)
				assert.Equal(t, int64(2), *n.ActualLoops)
			},
		},
		{
			name: "actual rows without timing",
			line: "Seq Scan on t  (cost=0.00..1.00 rows=1 width=4) (actual rows=4 loops=1)",
			check: func(t *testing.T, n *plan.Node) {
				assert.Equal(t, 1.00, *n.TotalCost)
				assert.Nil(t, n.ActualTime)
				assert.Equal(t, int64(4), *n.ActualRows)
			},
		},
		{
			name: "never executed alone",
			line: "Seq Scan on t (never executed)",
			check: func(t *testing.T, n *plan.Node) {
				assert.Equal(t, int64(0), *n.ActualLoops)
				assert.Equal(t, 0.0, *n.ActualTime)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := fromText(t, tt.line)
			tt.check(t, content.Children[0])
		})
	}
}

func TestFromText_SubPlanAndCTE(t *testing.T) {
	text := `CTE Scan on recent  (cost=10.00..20.00 rows=10 width=4)
  Filter: (SubPlan 1)
  CTE recent
    ->  Seq Scan on src  (cost=0.00..1.10 rows=10 width=4)
  InitPlan 2 (returns $1)
    ->  Result  (cost=0.00..0.01 rows=1 width=4)
  SubPlan 1
    ->  Index Scan using idx_b on b  (cost=0.29..8.30 rows=1 width=4)
          Index Cond: (id = recent.id)`

	root := fromText(t, text).Children[0]
	assert.Equal(t, "CTE Scan", root.OperatorType)
	assert.Equal(t, "recent", root.CTEName)
	assert.Equal(t, "(SubPlan 1)", root.Props["Filter"])

	require.Len(t, root.Children, 3)

	cte := root.Children[0]
	assert.Equal(t, "Seq Scan", cte.OperatorType)
	assert.Equal(t, "InitPlan", cte.ParentRelationship)
	assert.Equal(t, "CTE recent", cte.SubplanName)

	initPlan := root.Children[1]
	assert.Equal(t, "Result", initPlan.OperatorType)
	assert.Equal(t, "InitPlan", initPlan.ParentRelationship)
	assert.Equal(t, "InitPlan 2 (returns $1)", initPlan.SubplanName)

	subPlan := root.Children[2]
	assert.Equal(t, "Index Scan", subPlan.OperatorType)
	assert.Equal(t, "idx_b", subPlan.IndexName)
	assert.Equal(t, "SubPlan", subPlan.ParentRelationship)
	assert.Equal(t, "SubPlan 1", subPlan.SubplanName)
	assert.Equal(t, "(id = recent.id)", subPlan.Props["Index Cond"])
}

func TestFromText_SortAndJIT(t *testing.T) {
	text := `Sort  (cost=10.00..10.50 rows=200 width=8) (actual time=0.100..0.120 rows=200 loops=1)
  Sort Key: (lower(name)), id DESC
  Sort Method: quicksort  Memory: 25kB
  ->  Seq Scan on people  (cost=0.00..4.00 rows=200 width=8) (actual time=0.010..0.050 rows=200 loops=1)
Planning Time: 0.050 ms
JIT:
  Functions: 2
  Options: Inlining false, Optimization false, Expressions true, Deforming true
  Timing: Generation 0.340 ms, Inlining 0.000 ms, Optimization 0.168 ms, Emission 1.907 ms, Total 2.414 ms
Execution Time: 3.100 ms`

	content := fromText(t, text)
	sort := content.Children[0]

	assert.Equal(t, []string{"(lower(name))", "id DESC"}, sort.SortKey)
	assert.Equal(t, "quicksort", sort.SortMethod)
	assert.Equal(t, "Memory", sort.SortSpaceType)
	require.NotNil(t, sort.SortSpaceUsed)
	assert.Equal(t, int64(25), *sort.SortSpaceUsed)
	require.Len(t, sort.Children, 1)

	assert.Equal(t, map[string]float64{
		"Generation":   0.340,
		"Inlining":     0,
		"Optimization": 0.168,
		"Emission":     1.907,
		"Total":        2.414,
	}, content.Timing)
	assert.Equal(t, 2.0, content.Props["Functions"])
	assert.Equal(t, 3.1, content.Props[plan.PropExecutionTime])
	assert.Equal(t, 0.05, content.Props[plan.PropPlanningTime])
}

func TestFromText_SortGroups(t *testing.T) {
	text := `Incremental Sort  (cost=0.50..8.00 rows=100 width=8) (actual time=0.050..0.300 rows=100 loops=1)
  Sort Key: a, b
  Presorted Key: a
  Full-sort Groups: 4  Sort Method: quicksort  Average Memory: 27kB  Peak Memory: 28kB
  Pre-sorted Groups: 2  Sort Methods: top-N heapsort, quicksort  Average Memory: 30kB  Peak Memory: 31kB
  ->  Index Scan using idx_a on t  (cost=0.29..5.00 rows=100 width=8) (actual time=0.010..0.100 rows=100 loops=1)`

	n := fromText(t, text).Children[0]
	assert.Equal(t, []string{"a", "b"}, n.SortKey)
	assert.Equal(t, []string{"a"}, n.PresortedKey)
	assert.Equal(t, &plan.SortGroups{
		GroupCount:      4,
		SortMethodsUsed: []string{"quicksort"},
		AverageSpaceKB:  27,
		PeakSpaceKB:     28,
	}, n.FullSortGroups)
	assert.Equal(t, &plan.SortGroups{
		GroupCount:      2,
		SortMethodsUsed: []string{"top-N heapsort", "quicksort"},
		AverageSpaceKB:  30,
		PeakSpaceKB:     31,
	}, n.PreSortedGroups)
}

func TestFromText_UnsupportedSortGroups(t *testing.T) {
	text := `Incremental Sort  (cost=0.50..8.00 rows=100 width=8)
  Hybrid Groups: 4  Sort Method: quicksort  Average Memory: 27kB  Peak Memory: 28kB`

	_, err := New().FromText(text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrUnsupported))
}

func TestFromText_GenericValues(t *testing.T) {
	text := `Seq Scan on t  (cost=0.00..1.00 rows=1 width=4) (actual time=0.010..0.020 rows=1 loops=1)
  Rows Removed by Filter: 0
  Filter: (a > 1)
  Cache Key: NaN
  Memo: inf
Total runtime: 0.5 ms
 Trigger time: 1.25 ms`

	content := fromText(t, text)
	scan := content.Children[0]

	assert.Equal(t, 0.0, scan.Props["Rows Removed by Filter"])
	assert.Equal(t, "(a > 1)", scan.Props["Filter"])
	assert.Equal(t, "NaN", scan.Props["Cache Key"])
	assert.Equal(t, "inf", scan.Props["Memo"])
	assert.Equal(t, 0.5, content.Props["Total Runtime"])
	assert.Equal(t, 1.25, content.Props["Trigger Time"])
}

func TestFromText_QueryTextContinuation(t *testing.T) {
	text := "\tQuery Text: SELECT *\n" +
		"\t  FROM t\n" +
		"\t  WHERE a > 1\n" +
		"\tSeq Scan on t  (cost=0.00..1.00 rows=1 width=4)"

	content, err := New().FromText(text)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM t\nWHERE a > 1", content.Props[plan.PropQueryText])
	require.Len(t, content.Children, 1)
	assert.Equal(t, "t", content.Children[0].RelationName)
}

func TestFromText_Malformed(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "just some words\nwith no plan: at all"} {
		_, err := New().FromText(text)
		require.Error(t, err)
		assert.True(t, errors.Is(err, plan.ErrMalformedPlan), "input %q", text)
	}
}
