package report

// Violation is one architecture rule broken at a specific line.
type Violation struct {
	Code     string  `json:"code"`
	Severity string  `json:"severity"`
	File     string  `json:"file"`
	Line     int     `json:"line"`
	Message  *string `json:"message,omitempty"`
}

// MessageOr returns the violation message, or def when the message is absent. An empty
// message is returned as is.
func (v Violation) MessageOr(def string) string {
	if v.Message == nil {
		return def
	}
	return *v.Message
}

// ArchReport is the architecture gate's output.
type ArchReport struct {
	SchemaVersion string      `json:"schema_version"`
	LoadsetID     string      `json:"loadset_id"`
	Score         *int        `json:"score,omitempty"`
	EcsLayer      *string     `json:"ecs_layer"`
	BevyFree      *bool       `json:"bevy_free,omitempty"`
	TcrCompliant  *bool       `json:"tcr_compliant,omitempty"`
	RuneValid     *bool       `json:"rune_valid,omitempty"`
	SlotValid     *bool       `json:"slot_valid,omitempty"`
	Violations    []Violation `json:"violations"`
}

// ScoreOrDefault resolves the compliance score, defaulting to 50.
func (r ArchReport) ScoreOrDefault() int {
	if r.Score == nil {
		return DefaultDimensionScore
	}
	return *r.Score
}

// IsBevyFree resolves the forbidden-dependency flag. An unknown flag counts as compliant.
func (r ArchReport) IsBevyFree() bool {
	return r.BevyFree == nil || *r.BevyFree
}

// IsTcrCompliant resolves the type-contract flag. An unknown flag counts as compliant.
func (r ArchReport) IsTcrCompliant() bool {
	return r.TcrCompliant == nil || *r.TcrCompliant
}

// LoadArch reads an architecture report. A missing file is not an error.
func LoadArch(path string) (Loaded[ArchReport], error) {
	return load[ArchReport](path, SchemaArch)
}

// SaveArch writes an architecture report.
func SaveArch(path string, r *ArchReport) error {
	if r.Violations == nil {
		r.Violations = []Violation{}
	}
	return save(path, SchemaArch, r)
}
