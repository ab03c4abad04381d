package aggregate

import (
	"math"
	"time"

	"forgeqa/internal/report"
)

// Inputs are the three upstream reports of one crate. A report whose artifact was absent is
// its zero value, so every field falls back to its documented default.
type Inputs struct {
	CrateName string
	Static    report.StaticReport
	Arch      report.ArchReport
	Pattern   report.PatternReport
}

// Aggregate grades a crate. It is a pure function of the policy and the inputs; now only
// stamps the loadset id.
func Aggregate(p Policy, in Inputs, now time.Time) *report.Verdict {
	dims := dimensions(p, in)
	score := weightedScore(dims)

	grade := p.Grade(score)
	bevyFree := in.Arch.IsBevyFree()
	if !bevyFree {
		grade = report.GradeF
		if score > p.OverrideCap {
			score = p.OverrideCap
		}
	}

	return &report.Verdict{
		SchemaVersion: report.SchemaVersion,
		LoadsetID:     report.LoadsetID("qa", now),
		CrateName:     in.CrateName,
		Grade:         grade,
		Score:         score,
		Pass:          Passing(grade),
		Dimensions: map[string]report.Dimension{
			DimStructure:  dims[0],
			DimComplexity: dims[1],
			DimArch:       dims[2],
			DimPattern:    dims[3],
		},
		ArchSummary: report.ArchSummary{
			EcsLayer:     in.Arch.EcsLayer,
			BevyFree:     bevyFree,
			TcrCompliant: in.Arch.IsTcrCompliant(),
		},
		PatternSummary: report.PatternSummary{
			StrongMatches:  in.Pattern.Count(report.StrongMatch),
			TotalFunctions: len(in.Pattern.Matches),
		},
		RefactorDirectives: Directives(p, dims[1].Score, dims[3].Score, bevyFree, in.Arch.Violations),
	}
}

// dimensions returns structure, complexity, arch and pattern, in that order.
func dimensions(p Policy, in Inputs) [4]report.Dimension {
	return [4]report.Dimension{
		{
			Name:          DimStructure,
			Score:         in.Static.Structure(),
			Weight:        p.Weights.Structure,
			FindingsCount: len(in.Static.Findings),
		},
		{
			Name:   DimComplexity,
			Score:  in.Static.Complexity(),
			Weight: p.Weights.Complexity,
		},
		{
			Name:          DimArch,
			Score:         in.Arch.ScoreOrDefault(),
			Weight:        p.Weights.Arch,
			FindingsCount: len(in.Arch.Violations),
		},
		{
			Name:          DimPattern,
			Score:         in.Pattern.ScoreOrDefault(),
			Weight:        p.Weights.Pattern,
			FindingsCount: len(in.Pattern.Matches) - in.Pattern.Count(report.StrongMatch),
		},
	}
}

// weightedScore rounds half to even, so 81.5 becomes 82 and 80.5 becomes 80.
func weightedScore(dims [4]report.Dimension) int {
	total := 0.0
	for _, d := range dims {
		total += float64(d.Score) * d.Weight
	}
	return int(math.RoundToEven(total))
}

// Directives lists remediation steps in priority order: the forbidden dependency, then
// complexity, then pattern alignment, then one fix per critical or high violation in report
// order. The list is cut at the policy's cap.
func Directives(p Policy, complexity, pattern int, bevyFree bool, violations []report.Violation) []string {
	out := make([]string, 0, p.MaxDirectives)
	add := func(d string) bool {
		if len(out) >= p.MaxDirectives {
			return false
		}
		out = append(out, d)
		return true
	}

	if !bevyFree {
		add(p.TabooDirective)
	}
	if complexity < p.DirectiveFloor {
		add(p.ComplexityDirective)
	}
	if pattern < p.DirectiveFloor {
		add(p.PatternDirective)
	}
	for _, v := range violations {
		if v.Severity != report.SeverityCritical && v.Severity != report.SeverityHigh {
			continue
		}
		if !add(p.FixPrefix + v.MessageOr(p.UnknownViolation)) {
			break
		}
	}
	return out
}
