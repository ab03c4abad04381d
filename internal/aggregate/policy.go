// Package aggregate merges the static, architecture and pattern reports of a crate into a
// graded verdict with remediation directives.
package aggregate

import (
	"math"

	"github.com/cockroachdb/errors"

	"forgeqa/internal/report"
)

// Dimension names as they appear in the verdict.
const (
	DimStructure  = "structure"
	DimComplexity = "complexity"
	DimArch       = "arch"
	DimPattern    = "pattern"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid aggregation policy")

// Weights assigns each dimension its share of the overall score.
type Weights struct {
	Structure  float64
	Complexity float64
	Arch       float64
	Pattern    float64
}

// Sum adds the four weights.
func (w Weights) Sum() float64 {
	return w.Structure + w.Complexity + w.Arch + w.Pattern
}

// Thresholds are the lowest scores that still earn each grade.
type Thresholds struct {
	A, B, C, D int
}

// Policy is every constant the aggregator decides with.
type Policy struct {
	Weights    Weights
	Thresholds Thresholds

	// OverrideCap is the highest score a crate with a forbidden dependency can keep.
	OverrideCap int
	// DirectiveFloor is the score below which complexity and pattern directives are emitted.
	DirectiveFloor int
	MaxDirectives  int

	TabooDirective      string
	ComplexityDirective string
	PatternDirective    string
	FixPrefix           string
	UnknownViolation    string
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights:             Weights{Structure: 0.25, Complexity: 0.25, Arch: 0.25, Pattern: 0.25},
		Thresholds:          Thresholds{A: 85, B: 70, C: 55, D: 40},
		OverrideCap:         39,
		DirectiveFloor:      60,
		MaxDirectives:       5,
		TabooDirective:      "CRITICAL: Replace all bevy imports with sx9_ecs_prelude",
		ComplexityDirective: "Reduce function complexity - split large functions",
		PatternDirective:    "Align functions with canonical N-V-N-N patterns",
		FixPrefix:           "FIX: ",
		UnknownViolation:    "Unknown violation",
	}
}

// Validate checks that the weights sum to one and the thresholds descend.
func (p Policy) Validate() error {
	for name, w := range map[string]float64{
		DimStructure: p.Weights.Structure, DimComplexity: p.Weights.Complexity,
		DimArch: p.Weights.Arch, DimPattern: p.Weights.Pattern,
	} {
		if w <= 0 || w > 1 {
			return errors.Wrapf(ErrInvalidPolicy, "weight %s=%v outside (0,1]", name, w)
		}
	}
	if math.Abs(p.Weights.Sum()-1) > 1e-9 {
		return errors.Wrapf(ErrInvalidPolicy, "weights sum to %v", p.Weights.Sum())
	}
	t := p.Thresholds
	if !(t.A > t.B && t.B > t.C && t.C > t.D && t.D > 0) {
		return errors.Wrapf(ErrInvalidPolicy, "thresholds %d/%d/%d/%d do not descend", t.A, t.B, t.C, t.D)
	}
	if p.MaxDirectives < 0 {
		return errors.Wrap(ErrInvalidPolicy, "negative directive cap")
	}
	return nil
}

// Grade maps a score to its letter.
func (p Policy) Grade(score int) report.Grade {
	switch {
	case score >= p.Thresholds.A:
		return report.GradeA
	case score >= p.Thresholds.B:
		return report.GradeB
	case score >= p.Thresholds.C:
		return report.GradeC
	case score >= p.Thresholds.D:
		return report.GradeD
	default:
		return report.GradeF
	}
}

// Passing reports whether a grade passes the gate.
func Passing(g report.Grade) bool {
	return g == report.GradeA || g == report.GradeB
}
