package report

// Classification is the categorical verdict for one unit.
type Classification string

const (
	NoMatch      Classification = "NO_MATCH"
	PartialMatch Classification = "PARTIAL_MATCH"
	StrongMatch  Classification = "STRONG_MATCH"
	Ambiguous    Classification = "AMBIGUOUS"
)

// Candidate is one signature's scored claim on a unit.
type Candidate struct {
	PatternID       string   `json:"pattern_id"`
	Confidence      float64  `json:"confidence"`
	StructuralScore float64  `json:"structural_score"`
	SemanticScore   float64  `json:"semantic_score"`
	Violations      []string `json:"violations"`
}

// Match records the classification of one unit.
type Match struct {
	File           string         `json:"file"`
	Symbol         string         `json:"symbol"`
	Classification Classification `json:"classification"`
	Candidates     []Candidate    `json:"candidates"`
}

// PatternReport is the pattern gate's output.
type PatternReport struct {
	SchemaVersion string  `json:"schema_version"`
	LoadsetID     string  `json:"loadset_id"`
	Score         *int    `json:"score,omitempty"`
	Matches       []Match `json:"matches"`
}

// ScoreOrDefault resolves the pattern score, defaulting to 50.
func (r PatternReport) ScoreOrDefault() int {
	if r.Score == nil {
		return DefaultDimensionScore
	}
	return *r.Score
}

// Count returns how many matches carry the given classification.
func (r PatternReport) Count(c Classification) int {
	n := 0
	for _, m := range r.Matches {
		if m.Classification == c {
			n++
		}
	}
	return n
}

// LoadPattern reads a pattern report. A missing file is not an error.
func LoadPattern(path string) (Loaded[PatternReport], error) {
	return load[PatternReport](path, SchemaPattern)
}

// SavePattern writes a pattern report.
func SavePattern(path string, r *PatternReport) error {
	if r.Matches == nil {
		r.Matches = []Match{}
	}
	for i := range r.Matches {
		if r.Matches[i].Candidates == nil {
			r.Matches[i].Candidates = []Candidate{}
		}
		for j := range r.Matches[i].Candidates {
			if r.Matches[i].Candidates[j].Violations == nil {
				r.Matches[i].Candidates[j].Violations = []string{}
			}
		}
	}
	return save(path, SchemaPattern, r)
}
