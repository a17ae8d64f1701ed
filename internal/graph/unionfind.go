package graph

// UnionFind groups snapshot nodes into weakly connected components.
// Elements are indices into a fixed id list; union by size, path halving.
type UnionFind struct {
	ids    []string
	pos    map[string]int
	parent []int
	size   []int
}

// NewUnionFind creates a UnionFind where each id is its own component
func NewUnionFind(ids []string) *UnionFind {
	uf := &UnionFind{
		ids:    ids,
		pos:    make(map[string]int, len(ids)),
		parent: make([]int, len(ids)),
		size:   make([]int, len(ids)),
	}
	for i, id := range ids {
		uf.pos[id] = i
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *UnionFind) root(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

// Find returns the representative id of the component holding id.
// Unknown ids are their own representative.
func (uf *UnionFind) Find(id string) string {
	i, ok := uf.pos[id]
	if !ok {
		return id
	}
	return uf.ids[uf.root(i)]
}

// Union merges the components of a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b string) bool {
	i, okA := uf.pos[a]
	j, okB := uf.pos[b]
	if !okA || !okB {
		return false
	}
	ri, rj := uf.root(i), uf.root(j)
	if ri == rj {
		return false
	}
	if uf.size[ri] < uf.size[rj] {
		ri, rj = rj, ri
	}
	uf.parent[rj] = ri
	uf.size[ri] += uf.size[rj]
	return true
}

// Components returns every component as a list of ids. Components and their
// members follow the order of the ids handed to NewUnionFind.
func (uf *UnionFind) Components() [][]string {
	slot := make(map[int]int)
	var out [][]string
	for i, id := range uf.ids {
		r := uf.root(i)
		k, ok := slot[r]
		if !ok {
			k = len(out)
			slot[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], id)
	}
	return out
}
