package graph

import "github.com/google/uuid"

// checklistNamespace scopes the name-based UUIDs of checklist items.
var checklistNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pathfinder:checklist"))

// ChecklistItem is one completable step derived from a resolved path.
type ChecklistItem struct {
	ID        string `json:"id"`
	NodeID    string `json:"node_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
}

// ChecklistItemID is the stable id of nodeID's item within requestKey's checklist.
func ChecklistItemID(requestKey, nodeID string) string {
	return uuid.NewSHA1(checklistNamespace, []byte(requestKey+"\x00"+nodeID)).String()
}

// GenerateChecklist projects path into checklist items, Order being the
// 0-based position. Items start incomplete unless previous holds a completed
// item for the same node.
func GenerateChecklist(requestKey string, path []Node, previous []ChecklistItem) []ChecklistItem {
	var done map[string]bool
	if len(previous) > 0 {
		done = make(map[string]bool, len(previous))
		for _, it := range previous {
			if it.Completed {
				done[it.NodeID] = true
			}
		}
	}

	items := make([]ChecklistItem, len(path))
	for i, n := range path {
		items[i] = ChecklistItem{
			ID:        ChecklistItemID(requestKey, n.ID),
			NodeID:    n.ID,
			Title:     n.Title,
			Completed: done[n.ID],
			Order:     i,
		}
	}
	return items
}

// Completion returns the completed node ids of items.
func Completion(items []ChecklistItem) CompletionSet {
	set := make(CompletionSet)
	for _, it := range items {
		if it.Completed {
			set[it.NodeID] = true
		}
	}
	return set
}
