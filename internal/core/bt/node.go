package bt

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies a behavior tree node variant.
type Kind string

const (
	KindSelector  Kind = "selector"
	KindSequence  Kind = "sequence"
	KindParallel  Kind = "parallel"
	KindInverter  Kind = "inverter"
	KindSucceeder Kind = "succeeder"
	KindUntilFail Kind = "untilFail"
	KindRepeater  Kind = "repeater"
	KindCondition Kind = "condition"
	KindAction    Kind = "action"
)

// Capability classifies what a node variant may hold.
type Capability int

const (
	// CapComposite nodes hold an ordered list of children.
	CapComposite Capability = iota
	// CapDecorator nodes hold exactly one child.
	CapDecorator
	// CapLeaf nodes hold a condition or action payload and no children.
	CapLeaf
)

// Capability returns the structural class of the node kind.
func (k Kind) Capability() Capability {
	switch k {
	case KindSelector, KindSequence, KindParallel:
		return CapComposite
	case KindInverter, KindSucceeder, KindUntilFail, KindRepeater:
		return CapDecorator
	default:
		return CapLeaf
	}
}

func (k Kind) known() bool {
	switch k {
	case KindSelector, KindSequence, KindParallel, KindInverter,
		KindSucceeder, KindUntilFail, KindRepeater, KindCondition, KindAction:
		return true
	}
	return false
}

// Policy selects how a parallel node aggregates child results.
type Policy string

const (
	PolicyRequireAll Policy = "requireAll"
	PolicyRequireOne Policy = "requireOne"
)

// Node is one node of a behavior tree. Exactly one payload group is set
// depending on Kind: Children for composites, Child for decorators,
// Condition or Action for leaves. Trees are built by explicit parent/child
// edits and are acyclic by construction.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Kind Kind   `json:"type" yaml:"type"`

	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	Child    *Node   `json:"child,omitempty" yaml:"child,omitempty"`

	// Policy applies to parallel nodes only.
	Policy Policy `json:"policy,omitempty" yaml:"policy,omitempty"`
	// Count applies to repeater nodes; zero means repeat indefinitely.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action    *Action    `json:"action,omitempty" yaml:"action,omitempty"`
}

// NewSelector creates a selector over the given children. An empty id is
// replaced with a generated one.
func NewSelector(id string, children ...*Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindSelector, Children: children}
}

// NewSequence creates a sequence over the given children.
func NewSequence(id string, children ...*Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindSequence, Children: children}
}

// NewParallel creates a parallel node with the given policy.
func NewParallel(id string, policy Policy, children ...*Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindParallel, Policy: policy, Children: children}
}

// NewInverter wraps child, flipping success and failure.
func NewInverter(id string, child *Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindInverter, Child: child}
}

// NewSucceeder wraps child, always reporting success.
func NewSucceeder(id string, child *Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindSucceeder, Child: child}
}

// NewUntilFail wraps child; the scheduler re-invokes it across ticks until
// the child fails.
func NewUntilFail(id string, child *Node) *Node {
	return &Node{ID: orNewID(id), Kind: KindUntilFail, Child: child}
}

// NewRepeater wraps child, succeeding after count child successes.
// count <= 0 repeats indefinitely.
func NewRepeater(id string, count int, child *Node) *Node {
	if count < 0 {
		count = 0
	}
	return &Node{ID: orNewID(id), Kind: KindRepeater, Count: count, Child: child}
}

// NewConditionNode creates a condition leaf.
func NewConditionNode(id string, c Condition) *Node {
	return &Node{ID: orNewID(id), Kind: KindCondition, Condition: &c}
}

// NewActionNode creates an action leaf.
func NewActionNode(id string, a Action) *Node {
	return &Node{ID: orNewID(id), Kind: KindAction, Action: &a}
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Validate checks the whole tree for structural errors: unknown tags,
// composites without children, decorators without exactly one child,
// leaves without payload, and duplicate or missing ids. A tree that fails
// validation must never reach evaluation.
func (n *Node) Validate() error {
	seen := make(map[string]struct{})
	return n.validate(seen)
}

func (n *Node) validate(seen map[string]struct{}) error {
	if n == nil {
		return fmt.Errorf("bt: nil node")
	}
	if n.ID == "" {
		return fmt.Errorf("bt: node %q missing id", n.Kind)
	}
	if _, dup := seen[n.ID]; dup {
		return fmt.Errorf("bt: duplicate node id %q", n.ID)
	}
	seen[n.ID] = struct{}{}
	if !n.Kind.known() {
		return fmt.Errorf("bt: node %q has unknown type %q", n.ID, n.Kind)
	}

	switch n.Kind.Capability() {
	case CapComposite:
		if len(n.Children) == 0 {
			return fmt.Errorf("bt: %s node %q has no children", n.Kind, n.ID)
		}
		if n.Child != nil || n.Condition != nil || n.Action != nil {
			return fmt.Errorf("bt: %s node %q carries a non-composite payload", n.Kind, n.ID)
		}
		if n.Kind == KindParallel {
			if n.Policy != PolicyRequireAll && n.Policy != PolicyRequireOne {
				return fmt.Errorf("bt: parallel node %q has invalid policy %q", n.ID, n.Policy)
			}
		}
		for _, ch := range n.Children {
			if err := ch.validate(seen); err != nil {
				return err
			}
		}
	case CapDecorator:
		if n.Child == nil {
			return fmt.Errorf("bt: %s node %q has no child", n.Kind, n.ID)
		}
		if len(n.Children) != 0 || n.Condition != nil || n.Action != nil {
			return fmt.Errorf("bt: %s node %q carries a non-decorator payload", n.Kind, n.ID)
		}
		if n.Kind == KindRepeater && n.Count < 0 {
			return fmt.Errorf("bt: repeater node %q has negative count", n.ID)
		}
		if err := n.Child.validate(seen); err != nil {
			return err
		}
	case CapLeaf:
		if len(n.Children) != 0 || n.Child != nil {
			return fmt.Errorf("bt: %s node %q must be a leaf", n.Kind, n.ID)
		}
		switch n.Kind {
		case KindCondition:
			if n.Condition == nil {
				return fmt.Errorf("bt: condition node %q has no condition", n.ID)
			}
			if err := n.Condition.validate(); err != nil {
				return fmt.Errorf("bt: condition node %q: %w", n.ID, err)
			}
			if n.Action != nil {
				return fmt.Errorf("bt: condition node %q also carries an action", n.ID)
			}
		case KindAction:
			if n.Action == nil {
				return fmt.Errorf("bt: action node %q has no action", n.ID)
			}
			if err := n.Action.validate(); err != nil {
				return fmt.Errorf("bt: action node %q: %w", n.ID, err)
			}
			if n.Condition != nil {
				return fmt.Errorf("bt: action node %q also carries a condition", n.ID)
			}
		}
	}
	return nil
}
