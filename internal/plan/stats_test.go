package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMaximums_NestedRows(t *testing.T) {
	leaf := &Node{OperatorType: "Seq Scan", ActualRows: Int(12), ActualTime: Float(0.5)}
	mid := &Node{OperatorType: "Hash", ActualRows: Int(3), Children: []*Node{leaf}}
	root := &Node{OperatorType: "Hash Join", ActualRows: Int(5), ActualTime: Float(2.25), Children: []*Node{mid}}

	p := &Plan{Content: root}
	CalculateMaximums(p)

	require.NotNil(t, p.Stats.MaxRows)
	assert.Equal(t, int64(12), *p.Stats.MaxRows)
	require.NotNil(t, p.Stats.MaxDuration)
	assert.Equal(t, 2.25, *p.Stats.MaxDuration)
	assert.Nil(t, p.Stats.MaxResult, "missing result size must stay undefined")
	assert.Nil(t, p.Stats.MaxRowsScanned)
	assert.Nil(t, p.Stats.MaxEstimatedRows)
}

func TestCalculateMaximums_ZeroIsNotMissing(t *testing.T) {
	p := &Plan{Content: &Node{ResultSetSize: Int(0), RowsScanned: Int(0)}}
	CalculateMaximums(p)

	require.NotNil(t, p.Stats.MaxResult)
	assert.Equal(t, int64(0), *p.Stats.MaxResult)
	require.NotNil(t, p.Stats.MaxRowsScanned)
	assert.Equal(t, int64(0), *p.Stats.MaxRowsScanned)
}

func TestCalculateMaximums_IncludesCTEs(t *testing.T) {
	p := &Plan{
		Content: &Node{ActualRows: Int(10), RowsScanned: Int(40)},
		CTEs: []*Node{
			{ActualRows: Int(7), Children: []*Node{{RowsScanned: Int(900), ResultSetSize: Int(2048)}}},
		},
	}
	CalculateMaximums(p)

	assert.Equal(t, int64(10), *p.Stats.MaxRows)
	assert.Equal(t, int64(900), *p.Stats.MaxRowsScanned)
	assert.Equal(t, int64(2048), *p.Stats.MaxResult)
}

func TestCalculateMaximums_EstimatedRows(t *testing.T) {
	p := &Plan{
		Content: &Node{
			ExtraInfo: map[string]any{ExtraEstimatedRows: "120"},
			Children: []*Node{
				{ExtraInfo: map[string]any{ExtraEstimatedRows: json.Number("4500")}},
				{ExtraInfo: map[string]any{"Projections": "a"}},
				{},
				{ExtraInfo: map[string]any{ExtraEstimatedRows: "~90"}},
			},
		},
	}
	CalculateMaximums(p)

	require.NotNil(t, p.Stats.MaxEstimatedRows)
	assert.Equal(t, int64(4500), *p.Stats.MaxEstimatedRows)
}

func TestCalculateMaximums_EstimatedRowsZero(t *testing.T) {
	p := &Plan{
		Content: &Node{Children: []*Node{{ExtraInfo: map[string]any{ExtraEstimatedRows: "0"}}}},
	}
	CalculateMaximums(p)

	require.NotNil(t, p.Stats.MaxEstimatedRows)
	assert.Equal(t, int64(0), *p.Stats.MaxEstimatedRows)
}

func TestCalculateExecutionTime(t *testing.T) {
	p := &Plan{Content: &Node{}, Props: map[string]any{PropExecutionTime: 12.5}}
	CalculateExecutionTime(p)
	require.NotNil(t, p.Stats.ExecutionTime)
	assert.Equal(t, 12.5, *p.Stats.ExecutionTime)

	duck := &Plan{Content: &Node{}, Props: map[string]any{PropLatency: json.Number("0.25")}}
	CalculateExecutionTime(duck)
	require.NotNil(t, duck.Stats.ExecutionTime)
	assert.InDelta(t, 250.0, *duck.Stats.ExecutionTime, 1e-9)

	none := &Plan{Content: &Node{}}
	CalculateExecutionTime(none)
	assert.Nil(t, none.Stats.ExecutionTime)
}
