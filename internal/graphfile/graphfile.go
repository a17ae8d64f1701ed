// Package graphfile reads and writes compliance graph documents as YAML or JSON.
package graphfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"qms/pathfinder/internal/graph"
)

// Document is the on-disk shape of a graph.
type Document struct {
	Nodes []DocNode    `json:"nodes" yaml:"nodes"`
	Edges []graph.Edge `json:"edges" yaml:"edges"`
}

// DocNode is a node as authored. Tags and Location are accepted as aliases
// of Activities and Locations; NextReviewDate may be a date or an RFC 3339 time.
type DocNode struct {
	ID             string         `json:"id" yaml:"id"`
	Type           graph.NodeType `json:"type" yaml:"type"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Owner          string         `json:"owner,omitempty" yaml:"owner,omitempty"`
	Code           string         `json:"code,omitempty" yaml:"code,omitempty"`
	Version        string         `json:"version,omitempty" yaml:"version,omitempty"`
	Status         graph.Status   `json:"status,omitempty" yaml:"status,omitempty"`
	Roles          []string       `json:"roles,omitempty" yaml:"roles,omitempty"`
	Activities     []string       `json:"activities,omitempty" yaml:"activities,omitempty"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Locations      []string       `json:"locations,omitempty" yaml:"locations,omitempty"`
	Location       []string       `json:"location,omitempty" yaml:"location,omitempty"`
	ISOClauses     []string       `json:"isoClauses,omitempty" yaml:"isoClauses,omitempty"`
	Inputs         []string       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs        []string       `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Link           *graph.Link    `json:"link,omitempty" yaml:"link,omitempty"`
	NextReviewDate string         `json:"nextReviewDate,omitempty" yaml:"nextReviewDate,omitempty"`
}

// edgeNamespace scopes the ids derived for edges authored without one, so
// loading the same document twice yields the same ids.
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pathfinder:edge"))

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// LoadFromPath reads a graph document (YAML or JSON).
// Format is detected by extension, or by content when the extension is unknown.
func LoadFromPath(path string) (nodes []graph.Node, edges []graph.Edge, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read graph file: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a graph document. ext is a format hint (".yaml", ".yml", ".json");
// empty means detect from content. Edges without an id get one derived from
// their endpoints and relationship.
func Load(data []byte, ext string) ([]graph.Node, []graph.Edge, error) {
	var doc Document
	if err := decode(data, ext, &doc); err != nil {
		return nil, nil, err
	}

	nodes := make([]graph.Node, 0, len(doc.Nodes))
	for i, dn := range doc.Nodes {
		n, err := dn.toNode()
		if err != nil {
			return nil, nil, fmt.Errorf("node %d (%s): %w", i, dn.ID, err)
		}
		nodes = append(nodes, n)
	}
	edges := make([]graph.Edge, len(doc.Edges))
	repeats := make(map[string]int)
	for i, e := range doc.Edges {
		if e.Relationship == "" {
			e.Relationship = graph.RelRequires
		}
		if e.ID == "" {
			key := e.Source + "\x00" + e.Target + "\x00" + string(e.Relationship)
			name := key
			if n := repeats[key]; n > 0 {
				name += fmt.Sprintf("\x00%d", n)
			}
			repeats[key]++
			e.ID = uuid.NewSHA1(edgeNamespace, []byte(name)).String()
		}
		edges[i] = e
	}
	return nodes, edges, nil
}

func decode(data []byte, ext string, doc *Document) error {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext != ".yaml" && ext != ".json" {
		// Detect: JSON starts with {, else YAML
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}
	if ext == ".json" {
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("parse graph json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("parse graph yaml: %w", err)
	}
	return nil
}

func (dn DocNode) toNode() (graph.Node, error) {
	n := graph.Node{
		ID:          dn.ID,
		Type:        dn.Type,
		Title:       dn.Title,
		Description: dn.Description,
		Owner:       dn.Owner,
		Code:        dn.Code,
		Version:     dn.Version,
		Status:      dn.Status,
		Roles:       dn.Roles,
		Activities:  append(append([]string(nil), dn.Activities...), dn.Tags...),
		Locations:   append(append([]string(nil), dn.Locations...), dn.Location...),
		ISOClauses:  dn.ISOClauses,
		Inputs:      dn.Inputs,
		Outputs:     dn.Outputs,
		Link:        dn.Link,
	}
	if n.Status == "" {
		n.Status = graph.StatusDraft
	}
	if dn.NextReviewDate != "" {
		ts, err := parseDate(dn.NextReviewDate)
		if err != nil {
			return graph.Node{}, err
		}
		n.NextReviewDate = &ts
	}
	return n, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// Save writes nodes and edges as a document in format "yaml" or "json".
func Save(w io.Writer, nodes []graph.Node, edges []graph.Edge, format string) error {
	doc := Document{Nodes: make([]DocNode, len(nodes)), Edges: edges}
	for i, n := range nodes {
		dn := DocNode{
			ID:          n.ID,
			Type:        n.Type,
			Title:       n.Title,
			Description: n.Description,
			Owner:       n.Owner,
			Code:        n.Code,
			Version:     n.Version,
			Status:      n.Status,
			Roles:       n.Roles,
			Activities:  n.Activities,
			Locations:   n.Locations,
			ISOClauses:  n.ISOClauses,
			Inputs:      n.Inputs,
			Outputs:     n.Outputs,
			Link:        n.Link,
		}
		if n.NextReviewDate != nil {
			dn.NextReviewDate = n.NextReviewDate.UTC().Format(time.RFC3339)
		}
		doc.Nodes[i] = dn
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode graph yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
