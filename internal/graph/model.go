package graph

import (
	"fmt"
	"time"
)

// NodeType identifies the kind of management-system artifact a node stands for.
type NodeType string

const (
	TypePolicy           NodeType = "policy"
	TypeProcedure        NodeType = "procedure"
	TypeWorkInstruction  NodeType = "workInstruction"
	TypeSOP              NodeType = "sop"
	TypeRiskAssessment   NodeType = "riskAssessment"
	TypeForm             NodeType = "form"
	TypeRecord           NodeType = "record"
	TypeTraining         NodeType = "training"
	TypeExternalStandard NodeType = "externalStandard"
)

// typeHierarchy is the fixed ordering used to break ties between ready nodes.
var typeHierarchy = []NodeType{
	TypePolicy,
	TypeProcedure,
	TypeWorkInstruction,
	TypeSOP,
	TypeRiskAssessment,
	TypeForm,
	TypeRecord,
	TypeTraining,
	TypeExternalStandard,
}

var typeRank = func() map[NodeType]int {
	m := make(map[NodeType]int, len(typeHierarchy))
	for i, t := range typeHierarchy {
		m[t] = i
	}
	return m
}()

// NodeTypes returns the known node types in hierarchy order.
func NodeTypes() []NodeType {
	out := make([]NodeType, len(typeHierarchy))
	copy(out, typeHierarchy)
	return out
}

// Rank returns the position of t in the type hierarchy. Unknown types sort last.
func (t NodeType) Rank() int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return len(typeHierarchy)
}

func (t NodeType) Valid() bool {
	_, ok := typeRank[t]
	return ok
}

func (t NodeType) String() string { return string(t) }

// ParseNodeType converts a stored or user supplied value into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// Status is the review health (RAG) of an artifact. Informational only.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusGreen    Status = "green"
	StatusAmber    Status = "amber"
	StatusRed      Status = "red"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusGreen, StatusAmber, StatusRed, StatusArchived:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored value into a Status. Empty means draft.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusDraft, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Relationship is the typed meaning of an edge.
type Relationship string

const (
	RelRequires   Relationship = "requires"
	RelLeadsTo    Relationship = "leadsTo"
	RelReferences Relationship = "references"
	RelProduces   Relationship = "produces"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelRequires, RelLeadsTo, RelReferences, RelProduces:
		return true
	default:
		return false
	}
}

// ParseRelationship converts a stored value into a Relationship. Empty means requires.
func ParseRelationship(s string) (Relationship, error) {
	if s == "" {
		return RelRequires, nil
	}
	r := Relationship(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown relationship %q", s)
	}
	return r, nil
}

// Link points at the artifact itself. At most one of URL and FilePath is set.
type Link struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	FilePath string `json:"filePath,omitempty" yaml:"filePath,omitempty"`
}

// Node is one compliance artifact.
type Node struct {
	ID             string     `json:"id" yaml:"id"`
	Type           NodeType   `json:"type" yaml:"type"`
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Owner          string     `json:"owner,omitempty" yaml:"owner,omitempty"`
	Code           string     `json:"code,omitempty" yaml:"code,omitempty"`
	Version        string     `json:"version,omitempty" yaml:"version,omitempty"`
	Status         Status     `json:"status,omitempty" yaml:"status,omitempty"`
	Roles          []string   `json:"roles,omitempty" yaml:"roles,omitempty"`
	Activities     []string   `json:"activities,omitempty" yaml:"activities,omitempty"`
	Locations      []string   `json:"locations,omitempty" yaml:"locations,omitempty"`
	ISOClauses     []string   `json:"isoClauses,omitempty" yaml:"isoClauses,omitempty"`
	Inputs         []string   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs        []string   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Link           *Link      `json:"link,omitempty" yaml:"link,omitempty"`
	NextReviewDate *time.Time `json:"nextReviewDate,omitempty" yaml:"nextReviewDate,omitempty"`
}

// Edge is a directed relationship: completing or consulting Source precedes Target.
type Edge struct {
	ID           string       `json:"id" yaml:"id"`
	Source       string       `json:"source" yaml:"source"`
	Target       string       `json:"target" yaml:"target"`
	Relationship Relationship `json:"relationship" yaml:"relationship"`
	Critical     bool         `json:"critical,omitempty" yaml:"critical,omitempty"`
}

// WarningKind classifies a recoverable condition found while resolving.
//
// Cycles come in two kinds: cycle_broken marks the node emitted to break a
// cycle of two or more nodes, and self_loop marks a node that requires
// itself (a cycle of length one, ignored for ordering). IsCycle reports both.
type WarningKind string

const (
	WarnDanglingEdge WarningKind = "dangling_edge"
	WarnCycleBroken  WarningKind = "cycle_broken"
	WarnSelfLoop     WarningKind = "self_loop"
)

// IsCycle reports whether k describes a cycle in the graph.
func (k WarningKind) IsCycle() bool {
	return k == WarnCycleBroken || k == WarnSelfLoop
}

// Warning is a non-fatal advisory attached to a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	NodeID  string      `json:"node_id,omitempty"`
	EdgeID  string      `json:"edge_id,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string { return string(w.Kind) + ": " + w.Message }
