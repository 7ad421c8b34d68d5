// Package graph builds the variable-interaction graph for a model, detects
// loops, and constructs a junction tree for decomposable models (§4.4).
package graph

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"gohypo/domain/ra"
)

// InteractionGraph is the undirected graph whose nodes are variables and
// whose edges connect any pair of variables that co-occur in at least one
// relation of a model.
type InteractionGraph struct {
	n   int
	adj [][]bool
}

// BuildInteractionGraph constructs the interaction graph for m over vl's
// variables.
func BuildInteractionGraph(vl *ra.VariableList, m ra.Model) *InteractionGraph {
	n := vl.Len()
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	for _, r := range m.Relations {
		for i := 0; i < len(r.Vars); i++ {
			for j := i + 1; j < len(r.Vars); j++ {
				a, b := r.Vars[i], r.Vars[j]
				adj[a][b] = true
				adj[b][a] = true
			}
		}
	}
	return &InteractionGraph{n: n, adj: adj}
}

// HasLoops reports whether the graph contains a cycle, by iteratively
// removing every vertex of degree <= 1 until no more can be removed; any
// edge left over means a cycle remains (§4.4).
func (g *InteractionGraph) HasLoops() bool {
	degree := make([]int, g.n)
	removed := make([]bool, g.n)
	edges := 0
	for i := 0; i < g.n; i++ {
		for j := i + 1; j < g.n; j++ {
			if g.adj[i][j] {
				degree[i]++
				degree[j]++
				edges++
			}
		}
	}

	for {
		progressed := false
		for i := 0; i < g.n; i++ {
			if removed[i] || degree[i] > 1 {
				continue
			}
			removed[i] = true
			progressed = true
			for j := 0; j < g.n; j++ {
				if !removed[j] && g.adj[i][j] {
					degree[j]--
					degree[i]--
					edges--
				}
			}
		}
		if !progressed {
			break
		}
	}
	return edges > 0
}

// cliqueEdge is a candidate junction-tree edge between two relations, with
// the separator size that is its Kruskal weight.
type cliqueEdge struct {
	i, j   int
	weight int
}

// BuildJunctionTree runs Kruskal's maximum-weight spanning tree over the
// clique-intersection graph of m's relations, then verifies the Running
// Intersection Property. Ties in edge weight are broken by insertion order
// (the order relations appear in m), per §4.4 step 2.
//
// The returned tree's State is Valid if RIP holds, Invalid otherwise; an
// Invalid tree means the caller must fall back to IPF rather than belief
// propagation.
func BuildJunctionTree(vl *ra.VariableList, m ra.Model) *ra.JunctionTree {
	n := len(m.Relations)
	if n == 0 {
		return ra.NewJunctionTree(nil, nil)
	}
	if n == 1 {
		jt := ra.NewJunctionTree([]ra.Relation{m.Relations[0]}, []int{-1})
		jt.VerifyRIP(vl)
		return jt
	}

	weights := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := float64(m.Relations[i].Intersect(m.Relations[j]).Len())
			weights.Set(i, j, w)
			weights.Set(j, i, w)
		}
	}

	edges := make([]cliqueEdge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if w := weights.At(i, j); w > 0 {
				edges = append(edges, cliqueEdge{i: i, j: j, weight: int(w)})
			}
		}
	}

	sort.SliceStable(edges, func(a, b int) bool {
		return edges[a].weight > edges[b].weight
	})

	uf := newUnionFind(n)
	parentOf := make([]int, n)
	for i := range parentOf {
		parentOf[i] = -1
	}
	treeEdges := make(map[int][]int, n)
	joined := 0
	for _, e := range edges {
		if joined == n-1 {
			break
		}
		if uf.find(e.i) == uf.find(e.j) {
			continue
		}
		uf.union(e.i, e.j)
		treeEdges[e.i] = append(treeEdges[e.i], e.j)
		treeEdges[e.j] = append(treeEdges[e.j], e.i)
		joined++
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = -2 // unvisited sentinel
	}
	parent[0] = -1
	queue := []int{0}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range treeEdges[cur] {
			if parent[next] != -2 {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	// A clique graph with no path of shared variables to clique 0 (a
	// disjoint model, e.g. "ab:cd") leaves some cliques unreached; treat
	// each as its own forest root rather than crash on the sentinel.
	for i, p := range parent {
		if p == -2 {
			parent[i] = -1
		}
	}

	jt := ra.NewJunctionTree(m.Relations, parent)
	jt.VerifyRIP(vl)
	return jt
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
