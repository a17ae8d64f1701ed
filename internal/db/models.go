package db

// Node represents a row in the nodes table
type Node struct {
	ID             string  `json:"id"`
	Position       int     `json:"position"` // snapshot input order
	NodeType       string  `json:"type"`     // "policy", "procedure", "form", ...
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Owner          string  `json:"owner"`
	Code           string  `json:"code"`
	Version        string  `json:"version"`
	Status         string  `json:"status"`     // "draft", "green", "amber", "red", "archived"
	Roles          string  `json:"roles"`      // JSON array
	Activities     string  `json:"activities"` // JSON array
	Locations      string  `json:"locations"`  // JSON array
	ISOClauses     string  `json:"iso_clauses"`
	Inputs         string  `json:"inputs"`
	Outputs        string  `json:"outputs"`
	LinkURL        *string `json:"link_url"`
	LinkPath       *string `json:"link_path"`
	NextReviewDate *string `json:"next_review_date"` // RFC 3339
}

// Edge represents a row in the edges table
type Edge struct {
	ID           string `json:"id"`
	Position     int    `json:"position"`
	SourceID     string `json:"source_id"`
	TargetID     string `json:"target_id"`
	Relationship string `json:"relationship"` // "requires", "leadsTo", "references", "produces"
	Critical     bool   `json:"critical"`
}

// ChecklistItem represents a row in the checklist_items table
type ChecklistItem struct {
	RequestKey string `json:"request_key"`
	NodeID     string `json:"node_id"`
	ItemID     string `json:"item_id"`
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
	Position   int    `json:"position"`
	UpdatedAt  int64  `json:"updated_at"` // Unix millis
}
