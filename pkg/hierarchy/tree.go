package hierarchy

import (
	"strings"

	"github.com/samber/lo"
)

// DirectReportsName is the display name of synthetic managers.
const DirectReportsName = "Direct Reports"

// SyntheticManagerID returns the id of the synthetic manager that holds the
// direct reports of the SM with smID.
func SyntheticManagerID(smID string) string {
	return "virtual-m-" + smID
}

// Node is an entity placed in the tree.
type Node struct {
	*Entity
	Synthetic bool       `json:"synthetic,omitempty"`
	Metrics   Attainment `json:"metrics"`
	Children  []*Node    `json:"children"`
}

func newNode(e *Entity) *Node {
	return &Node{Entity: e, Metrics: e.Attainment(), Children: []*Node{}}
}

// Leaves returns the AM/FLAP nodes of the subtree rooted at n, deduplicated
// by id, in tree order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.Role.IsLeaf() {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return lo.UniqBy(out, func(c *Node) string { return c.ID })
}

// Result is the output of one hierarchy build.
type Result struct {
	SMs      []*Entity `json:"sms"`
	Managers []*Entity `json:"managers"`
	AMs      []*Entity `json:"ams"`
	Tree     []*Node   `json:"tree"`
}

// FindSM returns the SM node with id.
func (r *Result) FindSM(id string) (*Node, bool) {
	return lo.Find(r.Tree, func(n *Node) bool { return n.ID == id })
}

// FilterSM returns a copy of r scoped to the SM called name (trimmed,
// case-insensitive). Managers and AMs are narrowed to that SM's subtree.
func (r *Result) FilterSM(name string) *Result {
	key := strings.TrimSpace(name)
	tree := lo.Filter(r.Tree, func(n *Node, _ int) bool { return strings.EqualFold(n.Name, key) })

	inTree := map[string]struct{}{}
	for _, sm := range tree {
		inTree[sm.ID] = struct{}{}
		for _, m := range sm.Children {
			inTree[m.ID] = struct{}{}
			for _, am := range m.Children {
				inTree[am.ID] = struct{}{}
			}
		}
	}
	keep := func(e *Entity, _ int) bool {
		_, ok := inTree[e.ID]
		return ok
	}
	return &Result{
		SMs:      lo.Filter(r.SMs, keep),
		Managers: lo.Filter(r.Managers, keep),
		AMs:      lo.Filter(r.AMs, keep),
		Tree:     tree,
	}
}

// assemble links the levels by id. Managers without an SM and AMs that
// resolve to neither a manager nor an SM stay in the flat lists only.
func assemble(sms, managers, ams []*Entity) []*Node {
	tree := make([]*Node, 0, len(sms))
	smNodes := make(map[string]*Node, len(sms))
	for _, sm := range sms {
		n := newNode(sm)
		smNodes[sm.ID] = n
		tree = append(tree, n)
	}

	mgrNodes := make(map[string]*Node, len(managers))
	for _, m := range managers {
		n := newNode(m)
		mgrNodes[m.ID] = n
		if sm, ok := smNodes[m.SMID]; ok {
			sm.Children = append(sm.Children, n)
		}
	}

	synthetic := map[string]*Node{}
	for _, am := range ams {
		n := newNode(am)
		if mgr, ok := mgrNodes[am.ManagerID]; ok {
			mgr.Children = append(mgr.Children, n)
			continue
		}
		sm, ok := smNodes[am.SMID]
		if !ok {
			continue
		}
		direct, ok := synthetic[sm.ID]
		if !ok {
			direct = newNode(&Entity{
				ID:   SyntheticManagerID(sm.ID),
				Name: DirectReportsName,
				Role: RoleManager,
				SMID: sm.ID,
			})
			direct.Synthetic = true
			synthetic[sm.ID] = direct
			sm.Children = append(sm.Children, direct)
		}
		direct.Children = append(direct.Children, n)
	}
	return tree
}
