package report

// Grade is the letter grade of a verdict.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Dimension is one weighted quality axis.
type Dimension struct {
	Name          string  `json:"name"`
	Score         int     `json:"score"`
	Weight        float64 `json:"weight"`
	FindingsCount int     `json:"findings_count"`
}

// ArchSummary echoes the architecture flags the verdict was computed from.
type ArchSummary struct {
	EcsLayer     *string `json:"ecs_layer"`
	BevyFree     bool    `json:"bevy_free"`
	TcrCompliant bool    `json:"tcr_compliant"`
}

// PatternSummary counts strong matches among all classified functions.
type PatternSummary struct {
	StrongMatches  int `json:"strong_matches"`
	TotalFunctions int `json:"total_functions"`
}

// Verdict is the final QA report for a crate.
type Verdict struct {
	SchemaVersion      string               `json:"schema_version"`
	LoadsetID          string               `json:"loadset_id"`
	CrateName          string               `json:"crate_name"`
	Grade              Grade                `json:"grade"`
	Score              int                  `json:"score"`
	Pass               bool                 `json:"pass"`
	Dimensions         map[string]Dimension `json:"dimensions"`
	ArchSummary        ArchSummary          `json:"arch_summary"`
	PatternSummary     PatternSummary       `json:"pattern_summary"`
	RefactorDirectives []string             `json:"refactor_directives"`
}

// LoadVerdict reads a verdict artifact. A missing file is not an error.
func LoadVerdict(path string) (Loaded[Verdict], error) {
	return load[Verdict](path, SchemaVerdict)
}

// SaveVerdict writes a verdict artifact.
func SaveVerdict(path string, v *Verdict) error {
	if v.RefactorDirectives == nil {
		v.RefactorDirectives = []string{}
	}
	return save(path, SchemaVerdict, v)
}
