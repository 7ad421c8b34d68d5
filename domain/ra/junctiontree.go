package ra

// JunctionTreeState tracks where a junction tree is in its build lifecycle
// (§4.4): a tree starts NotBuilt, moves to BuildAttempted once a spanning
// tree has been assembled, then settles as Valid or Invalid depending on
// whether the Running Intersection Property holds.
type JunctionTreeState int

const (
	JunctionTreeNotBuilt JunctionTreeState = iota
	JunctionTreeBuildAttempted
	JunctionTreeValid
	JunctionTreeInvalid
)

// JunctionTree is a tree of cliques (relations) connected so that any
// variable shared by two cliques is also present on every clique along the
// path between them (the Running Intersection Property) (§3, §4.4).
//
// Cliques and structure are stored as flat parallel arrays rather than a
// linked node graph: Parent/Children/PostOrder index directly into Cliques.
type JunctionTree struct {
	Cliques   []Relation
	Parent    []int // Parent[i] is the index of i's parent clique, -1 for the root
	Children  [][]int
	Root      int
	PostOrder []int
	State     JunctionTreeState
}

// NewJunctionTree wraps a set of cliques and parent pointers, deriving
// Children, Root and PostOrder. The caller (internal/graph) is responsible
// for having chosen parent pointers that form a tree.
func NewJunctionTree(cliques []Relation, parent []int) *JunctionTree {
	jt := &JunctionTree{
		Cliques: cliques,
		Parent:  parent,
		Root:    -1,
		State:   JunctionTreeBuildAttempted,
	}
	jt.Children = make([][]int, len(cliques))
	for i, p := range parent {
		if p == -1 {
			jt.Root = i
			continue
		}
		jt.Children[p] = append(jt.Children[p], i)
	}
	jt.PostOrder = jt.computePostOrder()
	return jt
}

func (jt *JunctionTree) computePostOrder() []int {
	if jt.Root == -1 {
		return nil
	}
	order := make([]int, 0, len(jt.Cliques))
	var visit func(i int)
	visit = func(i int) {
		for _, c := range jt.Children[i] {
			visit(c)
		}
		order = append(order, i)
	}
	visit(jt.Root)
	return order
}

// PreOrder returns a depth-first parent-before-children traversal from
// Root, visiting each node's children in Children order, used by belief
// propagation's distribute phase (§4.6).
func (jt *JunctionTree) PreOrder() []int {
	if jt.Root == -1 {
		return nil
	}
	order := make([]int, 0, len(jt.Cliques))
	var visit func(i int)
	visit = func(i int) {
		order = append(order, i)
		for _, c := range jt.Children[i] {
			visit(c)
		}
	}
	visit(jt.Root)
	return order
}

// Separator returns the edge separator between clique i and its parent: the
// intersection of the two cliques' variable sets. Returns an empty relation
// for the root.
func (jt *JunctionTree) Separator(i int) Relation {
	if jt.Parent[i] == -1 {
		return Relation{}
	}
	return jt.Cliques[i].Intersect(jt.Cliques[jt.Parent[i]])
}

// VerifyRIP checks the Running Intersection Property: for every variable,
// the set of cliques containing it must form a connected subtree (§4.4,
// §7). Violation sets State to Invalid and returns false; otherwise sets
// State to Valid and returns true.
func (jt *JunctionTree) VerifyRIP(vl *VariableList) bool {
	for v := 0; v < vl.Len(); v++ {
		containing := map[int]bool{}
		for i, c := range jt.Cliques {
			if c.Contains(v) {
				containing[i] = true
			}
		}
		if len(containing) <= 1 {
			continue
		}
		if !jt.subtreeConnected(containing) {
			jt.State = JunctionTreeInvalid
			return false
		}
	}
	jt.State = JunctionTreeValid
	return true
}

// subtreeConnected reports whether the cliques in the set form a connected
// subtree of the junction tree (every member except one has its parent also
// in the set).
func (jt *JunctionTree) subtreeConnected(members map[int]bool) bool {
	count := 0
	for i := range members {
		if !members[jt.Parent[i]] {
			count++
		}
	}
	return count == 1
}
