package compiler

import "fmt"

// arenaNode is one asset node with its ownership and edges resolved to indices.
type arenaNode struct {
	asset   *NodeAsset
	parent  int
	inputs  []int
	outputs []int
}

// arena is the index-addressed view of an asset's node list.
type arena struct {
	nodes []arenaNode
	byID  map[string]int
}

// buildArena resolves owners and edges of a into parent and edge indices and checks
// that every node sits under an owner of the right kind.
func buildArena(a *Asset) (*arena, error) {
	ar := &arena{
		nodes: make([]arenaNode, len(a.Nodes)),
		byID:  make(map[string]int, len(a.Nodes)),
	}
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if _, dup := ar.byID[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrInvalidAsset, n.ID)
		}
		ar.byID[n.ID] = i
		ar.nodes[i] = arenaNode{asset: n, parent: -1}
	}

	for i := range ar.nodes {
		n := ar.nodes[i].asset
		if n.Owner == "" {
			continue
		}
		p, ok := ar.byID[n.Owner]
		if !ok {
			return nil, fmt.Errorf("%w: owner %q of node %q", ErrUnknownNode, n.Owner, n.ID)
		}
		ar.nodes[i].parent = p
	}

	for i := range ar.nodes {
		if err := ar.checkOwner(i); err != nil {
			return nil, err
		}
	}

	for _, e := range a.Edges {
		from, ok := ar.byID[e.From]
		if !ok {
			return nil, fmt.Errorf("%w: edge source %q", ErrUnknownNode, e.From)
		}
		to, ok := ar.byID[e.To]
		if !ok {
			return nil, fmt.Errorf("%w: edge target %q", ErrUnknownNode, e.To)
		}
		if err := ar.checkEdge(from, to); err != nil {
			return nil, err
		}
		ar.nodes[from].outputs = append(ar.nodes[from].outputs, to)
		ar.nodes[to].inputs = append(ar.nodes[to].inputs, from)
	}
	return ar, nil
}

func (ar *arena) kind(i int) NodeKind {
	return ar.nodes[i].asset.Kind
}

func (ar *arena) id(i int) string {
	return ar.nodes[i].asset.ID
}

// checkOwner enforces the ownership rules: states, entries and transitions live in a
// state machine; clips, state machines and final poses live in a state or at the top.
func (ar *arena) checkOwner(i int) error {
	parent := ar.nodes[i].parent
	switch ar.kind(i) {
	case NodeKindState, NodeKindEntry, NodeKindTransition:
		if parent < 0 || ar.kind(parent) != NodeKindStateMachine {
			return fmt.Errorf("%w: %s %q must be owned by a state machine", ErrInvalidOwner, ar.kind(i), ar.id(i))
		}
	default:
		if parent >= 0 && ar.kind(parent) != NodeKindState {
			return fmt.Errorf("%w: %s %q must be owned by a state or the top-level graph", ErrInvalidOwner, ar.kind(i), ar.id(i))
		}
	}

	// Ownership must bottom out at the top-level graph.
	steps := 0
	for p := parent; p >= 0; p = ar.nodes[p].parent {
		if p == i || steps > len(ar.nodes) {
			return fmt.Errorf("%w: ownership cycle through %q", ErrInvalidOwner, ar.id(i))
		}
		steps++
	}
	return nil
}

// checkEdge allows the four data-flow edges of a graph, between nodes sharing an owner.
func (ar *arena) checkEdge(from, to int) error {
	if ar.nodes[from].parent != ar.nodes[to].parent {
		return fmt.Errorf("%w: edge %q -> %q crosses owners", ErrInvalidAsset, ar.id(from), ar.id(to))
	}
	fk, tk := ar.kind(from), ar.kind(to)
	switch {
	case (fk == NodeKindClip || fk == NodeKindStateMachine) && tk == NodeKindFinalPose:
	case fk == NodeKindEntry && tk == NodeKindState:
	case fk == NodeKindState && tk == NodeKindTransition:
	case fk == NodeKindTransition && tk == NodeKindState:
	default:
		return fmt.Errorf("%w: edge %s %q -> %s %q is not allowed", ErrInvalidAsset, fk, ar.id(from), tk, ar.id(to))
	}
	return nil
}

// children returns the nodes of kind owned by parent, in declaration order.
func (ar *arena) children(parent int, kind NodeKind) []int {
	var out []int
	for i := range ar.nodes {
		if ar.nodes[i].parent == parent && ar.kind(i) == kind {
			out = append(out, i)
		}
	}
	return out
}
