package bt

// Status is the outcome of evaluating a node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	// StatusRunning is the running-equivalent failure produced by an
	// unfinished repeater. Parents and the scheduler treat it as
	// non-success; it only exists so a partial repeat is never mistaken
	// for a terminal success.
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusRunning:
		return "Running"
	default:
		return "Invalid"
	}
}

// CheckFunc decides a condition leaf. Supplied by the game layer and
// treated as opaque; called synchronously once per condition-node visit.
type CheckFunc func(c *Condition) bool

// EvalContext carries everything one evaluation needs.
type EvalContext struct {
	Check CheckFunc
	BB    *Blackboard
}

// Result is the outcome of one evaluation. Action is set only when a walk
// reached an action leaf; ActionNodeID is the id of that leaf. At most one
// action is ever selected per evaluation.
type Result struct {
	Status       Status
	Action       *Action
	ActionNodeID string
}

// repeatPrefix namespaces repeater counters inside the blackboard.
const repeatPrefix = "bt.repeat."

// ResetCounters drops all repeater counters from a blackboard. Called when
// an entity's tree is replaced so stale counts never leak into the new tree.
func ResetCounters(bb *Blackboard) {
	if bb != nil {
		bb.DeletePrefix(repeatPrefix)
	}
}

// Evaluate walks the tree depth-first, left to right, and returns a status
// plus the first action reached on a successful path. The walk never
// suspends and never executes actions; logical failure is a normal result,
// not an error. Trees must be validated before they get here.
func Evaluate(root *Node, ec EvalContext) Result {
	if root == nil {
		return Result{Status: StatusFailure}
	}
	switch root.Kind {
	case KindSelector:
		return evalSelector(root, ec)
	case KindSequence:
		return evalSequence(root, ec)
	case KindParallel:
		return evalParallel(root, ec)
	case KindInverter:
		return evalInverter(root, ec)
	case KindSucceeder:
		return evalSucceeder(root, ec)
	case KindUntilFail:
		// Until-fail semantics live across scheduler ticks; within one
		// evaluation the child result passes through unchanged.
		return Evaluate(root.Child, ec)
	case KindRepeater:
		return evalRepeater(root, ec)
	case KindCondition:
		return evalCondition(root, ec)
	case KindAction:
		return Result{Status: StatusSuccess, Action: root.Action, ActionNodeID: root.ID}
	default:
		return Result{Status: StatusFailure}
	}
}

// evalSelector returns the first succeeding child's result, action included.
func evalSelector(n *Node, ec EvalContext) Result {
	for _, ch := range n.Children {
		if r := Evaluate(ch, ec); r.Status == StatusSuccess {
			return r
		}
	}
	return Result{Status: StatusFailure}
}

// evalSequence fails on the first non-succeeding child, otherwise returns
// the last child's result.
func evalSequence(n *Node, ec EvalContext) Result {
	var last Result
	for _, ch := range n.Children {
		last = Evaluate(ch, ec)
		if last.Status != StatusSuccess {
			return Result{Status: last.Status}
		}
	}
	return last
}

// evalParallel evaluates every child with no short-circuit. The node's
// action is the first action reported among succeeding children, lowest
// index winning.
func evalParallel(n *Node, ec EvalContext) Result {
	successes := 0
	var action *Action
	var actionNode string
	for _, ch := range n.Children {
		r := Evaluate(ch, ec)
		if r.Status != StatusSuccess {
			continue
		}
		successes++
		if action == nil && r.Action != nil {
			action = r.Action
			actionNode = r.ActionNodeID
		}
	}
	ok := false
	switch n.Policy {
	case PolicyRequireAll:
		ok = successes == len(n.Children)
	case PolicyRequireOne:
		ok = successes > 0
	}
	if !ok {
		return Result{Status: StatusFailure}
	}
	return Result{Status: StatusSuccess, Action: action, ActionNodeID: actionNode}
}

// evalInverter flips success and failure. The child's action rides along
// untouched, so an inverted action leaf reports failure while still
// carrying its payload.
func evalInverter(n *Node, ec EvalContext) Result {
	r := Evaluate(n.Child, ec)
	switch r.Status {
	case StatusSuccess:
		r.Status = StatusFailure
	case StatusFailure:
		r.Status = StatusSuccess
	}
	return r
}

// evalSucceeder reports success no matter what the child did, keeping the
// child's action.
func evalSucceeder(n *Node, ec EvalContext) Result {
	r := Evaluate(n.Child, ec)
	r.Status = StatusSuccess
	return r
}

// evalRepeater evaluates the child once and counts its successes in the
// blackboard, keyed by node id. With a count it reports terminal success
// (carrying the action) when the counter reaches it, then resets; without
// one it stays running forever.
func evalRepeater(n *Node, ec EvalContext) Result {
	r := Evaluate(n.Child, ec)
	if r.Status != StatusSuccess {
		return Result{Status: r.Status}
	}
	key := repeatPrefix + n.ID
	count := 0
	if ec.BB != nil {
		count, _ = ec.BB.GetInt(key)
	}
	count++
	if n.Count > 0 && count >= n.Count {
		if ec.BB != nil {
			ec.BB.Delete(key)
		}
		return r
	}
	if ec.BB != nil {
		ec.BB.Set(key, count)
	}
	return Result{Status: StatusRunning}
}

func evalCondition(n *Node, ec EvalContext) Result {
	if ec.Check != nil && ec.Check(n.Condition) {
		return Result{Status: StatusSuccess}
	}
	return Result{Status: StatusFailure}
}
