package plan

import "time"

// Node is one plan operator. Fields the engine understands are typed and
// optional; everything else a producer emits lands in Props.
type Node struct {
	ID int `json:"nodeId"`

	// Core identity
	OperatorType       string `json:"operator_type,omitempty"`
	ParentRelationship string `json:"Parent Relationship,omitempty"`
	SubplanName        string `json:"Subplan Name,omitempty"`
	ParallelAware      bool   `json:"Parallel Aware,omitempty"`

	// Extracted from the operator label
	RelationName string `json:"Relation Name,omitempty"`
	Alias        string `json:"Alias,omitempty"`
	IndexName    string `json:"Index Name,omitempty"`
	CTEName      string `json:"CTE Name,omitempty"`
	FunctionName string `json:"Function Name,omitempty"`
	JoinType     string `json:"Join Type,omitempty"`

	// Estimates
	StartupCost *float64 `json:"Startup Cost,omitempty"`
	TotalCost   *float64 `json:"Total Cost,omitempty"`
	PlanRows    *int64   `json:"Plan Rows,omitempty"`
	PlanWidth   *int64   `json:"Plan Width,omitempty"`

	// Actuals
	ActualStartupTime *float64 `json:"Actual Startup Time,omitempty"`
	ActualTime        *float64 `json:"operator_timing,omitempty"`
	ActualRows        *int64   `json:"operator_cardinality,omitempty"`
	ActualLoops       *int64   `json:"Actual Loops,omitempty"`
	RowsScanned       *int64   `json:"operator_rows_scanned,omitempty"`
	ResultSetSize     *int64   `json:"result_set_size,omitempty"`
	CPUTime           *float64 `json:"cpu_time,omitempty"`

	// Sort
	SortKey         []string    `json:"Sort Key,omitempty"`
	PresortedKey    []string    `json:"Presorted Key,omitempty"`
	SortMethod      string      `json:"Sort Method,omitempty"`
	SortSpaceUsed   *int64      `json:"Sort Space Used,omitempty"`
	SortSpaceType   string      `json:"Sort Space Type,omitempty"`
	FullSortGroups  *SortGroups `json:"Full-sort Groups,omitempty"`
	PreSortedGroups *SortGroups `json:"Pre-sorted Groups,omitempty"`

	// JIT phase timings in milliseconds
	Timing map[string]float64 `json:"Timing,omitempty"`

	ExtraInfo map[string]any `json:"extra_info,omitempty"`
	Props     map[string]any `json:"props,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// SortGroups describes an incremental sort "Full-sort Groups" or
// "Pre-sorted Groups" block.
type SortGroups struct {
	GroupCount      int64    `json:"Group Count"`
	SortMethodsUsed []string `json:"Sort Methods Used"`
	AverageSpaceKB  int64    `json:"Average Sort Space Used"`
	PeakSpaceKB     int64    `json:"Peak Sort Space Used"`
}

// Stats holds whole-plan maxima. A nil field means no node defines it.
type Stats struct {
	ExecutionTime    *float64 `json:"executionTime,omitempty"`
	MaxRows          *int64   `json:"maxRows,omitempty"`
	MaxRowsScanned   *int64   `json:"maxRowsScanned,omitempty"`
	MaxEstimatedRows *int64   `json:"maxEstimatedRows,omitempty"`
	MaxResult        *int64   `json:"maxResult,omitempty"`
	MaxDuration      *float64 `json:"maxDuration,omitempty"`
}

// Plan is the parsed report: metadata, the node tree and its statistics.
type Plan struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedOn time.Time          `json:"createdOn"`
	Query     string             `json:"query,omitempty"`
	Content   *Node              `json:"content"`
	CTEs      []*Node            `json:"ctes,omitempty"`
	Props     map[string]any     `json:"props,omitempty"`
	JITTiming map[string]float64 `json:"jitTiming,omitempty"`
	Stats     Stats              `json:"planStats"`
}
