package graph

import "time"

// Estimator gives the expected time to complete or consult one artifact.
type Estimator interface {
	Estimate(n Node) time.Duration
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(Node) time.Duration

func (f EstimatorFunc) Estimate(n Node) time.Duration { return f(n) }

// DurationTable estimates by node type, falling back to Default.
type DurationTable struct {
	ByType  map[NodeType]time.Duration
	Default time.Duration
}

func (t DurationTable) Estimate(n Node) time.Duration {
	if d, ok := t.ByType[n.Type]; ok {
		return d
	}
	return t.Default
}

// DefaultDurations returns the built-in per-type table.
func DefaultDurations() DurationTable {
	return DurationTable{
		ByType: map[NodeType]time.Duration{
			TypePolicy:           15 * time.Minute,
			TypeProcedure:        20 * time.Minute,
			TypeWorkInstruction:  15 * time.Minute,
			TypeSOP:              20 * time.Minute,
			TypeRiskAssessment:   30 * time.Minute,
			TypeForm:             10 * time.Minute,
			TypeRecord:           5 * time.Minute,
			TypeTraining:         60 * time.Minute,
			TypeExternalStandard: 30 * time.Minute,
		},
		Default: 15 * time.Minute,
	}
}
