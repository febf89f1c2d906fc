package compare

type Direction int

const (
	Unchanged Direction = 0
	Improved  Direction = 1
	Regressed Direction = 2

	SignificanceThresholdPct = 1.0
)

func (d Direction) String() string {
	switch d {
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	default:
		return "unchanged"
	}
}

type ChangeType int

const (
	NoChange    ChangeType = 0
	Modified    ChangeType = 1
	Added       ChangeType = 2
	Removed     ChangeType = 3
	TypeChanged ChangeType = 4
)

func (c ChangeType) String() string {
	switch c {
	case Modified:
		return "modified"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case TypeChanged:
		return "type_changed"
	default:
		return "no_change"
	}
}

// FieldChange is a classified node field that differs between the two
// plans, such as the relation, alias or join type.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type NodeDelta struct {
	NodeType   string     `json:"nodeType"`
	Relation   string     `json:"relation,omitempty"`
	ChangeType ChangeType `json:"changeType"`

	OldNodeType string `json:"oldNodeType,omitempty"`
	NewNodeType string `json:"newNodeType,omitempty"`

	OldCost   float64   `json:"oldCost"`
	NewCost   float64   `json:"newCost"`
	CostDelta float64   `json:"costDelta"`
	CostPct   float64   `json:"costPct"`
	CostDir   Direction `json:"costDir"`

	OldTime   float64   `json:"oldTime"`
	NewTime   float64   `json:"newTime"`
	TimeDelta float64   `json:"timeDelta"`
	TimePct   float64   `json:"timePct"`
	TimeDir   Direction `json:"timeDir"`

	OldRows   int64   `json:"oldRows"`
	NewRows   int64   `json:"newRows"`
	RowsDelta int64   `json:"rowsDelta"`
	RowsPct   float64 `json:"rowsPct"`

	OldLoops int64 `json:"oldLoops"`
	NewLoops int64 `json:"newLoops"`

	OldSortSpill bool `json:"oldSortSpill"`
	NewSortSpill bool `json:"newSortSpill"`

	Fields []FieldChange `json:"fields,omitempty"`

	Children []NodeDelta `json:"children,omitempty"`
}

type Result struct {
	Deltas  []NodeDelta `json:"deltas"`
	Summary Summary     `json:"summary"`
}

// Isomorphic reports whether both plans have the same shape, the same
// operator types and the same classified fields. Metric changes are ignored.
func (r Result) Isomorphic() bool {
	s := r.Summary
	return s.NodesAdded == 0 && s.NodesRemoved == 0 && s.NodesTypeChanged == 0 && s.FieldsChanged == 0
}

type Summary struct {
	OldNodeCount int `json:"oldNodeCount"`
	NewNodeCount int `json:"newNodeCount"`

	OldMaxDuration float64   `json:"oldMaxDuration"`
	NewMaxDuration float64   `json:"newMaxDuration"`
	DurationPct    float64   `json:"durationPct"`
	DurationDir    Direction `json:"durationDir"`

	OldExecutionTime float64   `json:"oldExecutionTime"`
	NewExecutionTime float64   `json:"newExecutionTime"`
	TimeDelta        float64   `json:"timeDelta"`
	TimePct          float64   `json:"timePct"`
	TimeDir          Direction `json:"timeDir"`

	OldMaxRows int64 `json:"oldMaxRows"`
	NewMaxRows int64 `json:"newMaxRows"`

	NodesAdded       int `json:"nodesAdded"`
	NodesRemoved     int `json:"nodesRemoved"`
	NodesModified    int `json:"nodesModified"`
	NodesTypeChanged int `json:"nodesTypeChanged"`
	FieldsChanged    int `json:"fieldsChanged"`

	Verdict string `json:"verdict"`
}
