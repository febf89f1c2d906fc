package plan

// Property keys shared by the text and JSON ingestion paths.
const (
	PropQueryText     = "Query Text"
	PropExecutionTime = "Execution Time"
	PropPlanningTime  = "Planning Time"
	PropLatency       = "latency"

	ExtraEstimatedRows = "Estimated Cardinality"
)

// NewNode returns a node for the given operator label. An empty label yields
// a bare node, used as the holder for top-level content.
func NewNode(label string) *Node {
	n := &Node{}
	if label == "" {
		return n
	}
	n.classify(label)
	return n
}

// Get returns a value from the open property bag.
func (n *Node) Get(key string) (any, bool) {
	v, ok := n.Props[key]
	return v, ok
}

// Set stores a value in the open property bag.
func (n *Node) Set(key string, v any) {
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[key] = v
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Flatten returns n and every descendant in pre-order.
func (n *Node) Flatten() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		out = append(out, node)
		return true
	})
	return out
}

func Float(v float64) *float64 { return &v }

func Int(v int64) *int64 { return &v }
