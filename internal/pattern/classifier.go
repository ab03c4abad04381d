package pattern

import "forgeqa/internal/report"

const (
	strongThreshold    = 0.7
	contenderThreshold = 0.5
	partialThreshold   = 0.4
)

// Classify reduces a ranked candidate list to one verdict. A credible runner-up turns an
// otherwise strong match into AMBIGUOUS.
func Classify(ranked []report.Candidate) report.Classification {
	if len(ranked) == 0 {
		return report.NoMatch
	}
	best := ranked[0]
	for _, c := range ranked[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}

	switch {
	case best.Confidence >= strongThreshold:
		if len(ranked) > 1 && ranked[1].Confidence > contenderThreshold {
			return report.Ambiguous
		}
		return report.StrongMatch
	case best.Confidence >= partialThreshold:
		return report.PartialMatch
	default:
		return report.NoMatch
	}
}

// BaselineScore is the crate score when nothing in the crate carries pattern evidence.
const BaselineScore = 70

// Score reduces a crate's matches to 0-100. Only matches with at least one candidate form
// the denominator; strong and partial counts range over every match, which is equivalent
// because a classification above NO_MATCH implies a candidate.
func Score(matches []report.Match) int {
	relevant := 0
	strong, partial := 0, 0
	for _, m := range matches {
		if len(m.Candidates) > 0 {
			relevant++
		}
		switch m.Classification {
		case report.StrongMatch:
			strong++
		case report.PartialMatch:
			partial++
		}
	}
	if relevant == 0 {
		return BaselineScore
	}
	score := (100*strong + 50*partial) / relevant
	if score > 100 {
		score = 100
	}
	return score
}
