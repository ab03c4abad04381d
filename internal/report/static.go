package report

// Severity levels shared by findings and violations.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// DefaultDimensionScore stands in for any dimension score an upstream report did not provide.
const DefaultDimensionScore = 50

// Finding is one structural observation from the static gate.
type Finding struct {
	ID       string  `json:"id"`
	Severity string  `json:"severity"`
	Score    float64 `json:"score"`
	Message  string  `json:"message"`
	File     *string `json:"file,omitempty"`
	Line     *int    `json:"line,omitempty"`
}

// StaticReport is the static gate's output.
type StaticReport struct {
	SchemaVersion   string    `json:"schema_version"`
	LoadsetID       string    `json:"loadset_id"`
	StructureScore  *int      `json:"structure_score,omitempty"`
	ComplexityScore *int      `json:"complexity_score,omitempty"`
	Findings        []Finding `json:"findings"`
}

// Structure resolves the structure score, defaulting to 50.
func (r StaticReport) Structure() int {
	if r.StructureScore == nil {
		return DefaultDimensionScore
	}
	return *r.StructureScore
}

// Complexity resolves the complexity score, defaulting to 50.
func (r StaticReport) Complexity() int {
	if r.ComplexityScore == nil {
		return DefaultDimensionScore
	}
	return *r.ComplexityScore
}

// LoadStatic reads a static report. A missing file is not an error.
func LoadStatic(path string) (Loaded[StaticReport], error) {
	return load[StaticReport](path, SchemaStatic)
}

// SaveStatic writes a static report.
func SaveStatic(path string, r *StaticReport) error {
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	return save(path, SchemaStatic, r)
}
