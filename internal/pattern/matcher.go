// Package pattern scores functions against canonical archetypes, classifies each function
// and reduces a crate's classifications to one score.
package pattern

import (
	"math"
	"sort"
	"unicode/utf8"

	"forgeqa/internal/extractor"
	"forgeqa/internal/registry"
	"forgeqa/internal/report"
)

const (
	structuralWeight = 0.6
	semanticWeight   = 0.4
	violationPenalty = 0.2
	minConfidence    = 0.3

	// MaxCandidates is how many ranked candidates a Match keeps.
	MaxCandidates = 3
	// MaxEvidenceBytes caps the text a single unit is searched over.
	MaxEvidenceBytes = 64 << 10

	violationRuleWidth = 30
)

// Evidence is the text a unit is matched on: its name and body behind an fn keyword.
func Evidence(u extractor.Unit) string {
	text := "fn " + u.Name + " " + u.Body
	if len(text) > MaxEvidenceBytes {
		text = text[:MaxEvidenceBytes]
	}
	return text
}

// MatchUnit scores one unit against one signature. It returns false when the signature has
// no positive evidence in the unit or the blended confidence is below 0.3.
func MatchUnit(u extractor.Unit, sig registry.Signature) (report.Candidate, bool) {
	return matchEvidence(Evidence(u), sig)
}

func matchEvidence(text string, sig registry.Signature) (report.Candidate, bool) {
	if len(sig.Patterns) == 0 {
		return report.Candidate{}, false
	}

	found := 0
	for _, p := range sig.Patterns {
		if p.Found(text) {
			found++
		}
	}
	if found == 0 {
		return report.Candidate{}, false
	}
	structural := math.Min(1, float64(found)/float64(len(sig.Patterns)))

	violations := []string{}
	for _, ap := range sig.AntiPatterns {
		if ap.Found(text) {
			violations = append(violations, "violates: "+truncate(ap.String(), violationRuleWidth))
		}
	}
	semantic := math.Max(0, 1-violationPenalty*float64(len(violations)))

	confidence := round2(structuralWeight*structural + semanticWeight*semantic)
	if confidence < minConfidence {
		return report.Candidate{}, false
	}

	return report.Candidate{
		PatternID:       sig.ID,
		Confidence:      confidence,
		StructuralScore: round2(structural),
		SemanticScore:   round2(semantic),
		Violations:      violations,
	}, true
}

// Rank scores a unit against every signature and returns the candidates sorted by
// descending confidence. Ties keep registry order.
func Rank(u extractor.Unit, reg *registry.Registry) []report.Candidate {
	text := Evidence(u)
	var out []report.Candidate
	for _, sig := range reg.Signatures() {
		if c, ok := matchEvidence(text, sig); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Top returns at most MaxCandidates leading candidates.
func Top(ranked []report.Candidate) []report.Candidate {
	if len(ranked) > MaxCandidates {
		ranked = ranked[:MaxCandidates]
	}
	return append([]report.Candidate{}, ranked...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
