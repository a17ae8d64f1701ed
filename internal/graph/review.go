package graph

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// OverdueReview is a live artifact whose review date has passed
type OverdueReview struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Owner          string `json:"owner,omitempty"`
	DaysOverdue    int64  `json:"days_overdue"`
	DependentCount int    `json:"dependent_count"`
}

// ArchivedPrerequisite is an archived artifact that live artifacts still depend on
type ArchivedPrerequisite struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	DependentIDs []string `json:"dependent_ids"`
}

// ReviewReport summarises review health across the graph
type ReviewReport struct {
	StatusCounts          map[Status]int         `json:"status_counts"`
	Overdue               []OverdueReview        `json:"overdue"`
	OverdueCount          int                    `json:"overdue_count"`
	DueSoonCount          int                    `json:"due_soon_count"`
	ArchivedPrerequisites []ArchivedPrerequisite `json:"archived_prerequisites"`
}

// ComputeReviews finds overdue and soon-due reviews and archived artifacts
// that are still prerequisites of live ones.
func ComputeReviews(snap *Snapshot, now time.Time, dueSoonDays int) *ReviewReport {
	report := &ReviewReport{StatusCounts: make(map[Status]int)}
	dueSoon := now.Add(time.Duration(dueSoonDays) * day)

	for _, n := range snap.Nodes() {
		status := n.Status
		if status == "" {
			status = StatusDraft
		}
		report.StatusCounts[status]++
		if status == StatusArchived {
			if deps := liveDependents(snap, n.ID); len(deps) > 0 {
				report.ArchivedPrerequisites = append(report.ArchivedPrerequisites, ArchivedPrerequisite{
					ID:           n.ID,
					Title:        n.Title,
					DependentIDs: deps,
				})
			}
			continue
		}
		if n.NextReviewDate == nil {
			continue
		}
		switch {
		case n.NextReviewDate.Before(now):
			report.Overdue = append(report.Overdue, OverdueReview{
				ID:             n.ID,
				Title:          n.Title,
				Owner:          n.Owner,
				DaysOverdue:    int64(now.Sub(*n.NextReviewDate) / day),
				DependentCount: len(liveDependents(snap, n.ID)),
			})
		case n.NextReviewDate.Before(dueSoon):
			report.DueSoonCount++
		}
	}

	sort.SliceStable(report.Overdue, func(i, j int) bool {
		if report.Overdue[i].DaysOverdue != report.Overdue[j].DaysOverdue {
			return report.Overdue[i].DaysOverdue > report.Overdue[j].DaysOverdue
		}
		return report.Overdue[i].ID < report.Overdue[j].ID
	})
	report.OverdueCount = len(report.Overdue)
	return report
}

// liveDependents returns the distinct non-archived targets of id's outgoing edges.
func liveDependents(snap *Snapshot, id string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range snap.Outgoing(id) {
		t, _ := snap.Node(e.Target)
		if t.Status == StatusArchived || seen[t.ID] || t.ID == id {
			continue
		}
		seen[t.ID] = true
		out = append(out, t.ID)
	}
	return out
}
