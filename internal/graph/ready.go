package graph

// readyEntry is a node whose prerequisites have all been emitted.
type readyEntry struct {
	id       string
	critical bool
	rank     int
}

// before reports whether a must be emitted ahead of b: critical-reached
// nodes first, then type hierarchy, then id.
func (a readyEntry) before(b readyEntry) bool {
	if a.critical != b.critical {
		return a.critical
	}
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.id < b.id
}

// readyHeap implements container/heap.Interface as a min-heap over before.
type readyHeap []readyEntry

func (h readyHeap) Len() int            { return len(h) }
func (h readyHeap) Less(i, j int) bool  { return h[i].before(h[j]) }
func (h readyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(readyEntry)) }
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
