// Package arch checks a crate against the ECS layering rules: forbidden engine imports,
// layer-specific restrictions and identifier type contracts.
package arch

import (
	"regexp"
	"strings"

	"forgeqa/internal/report"
)

// Violation codes.
const (
	CodeForbiddenEngine = "E9127-001"
	CodeAsyncInL2       = "E9127-003"
	CodeStringInL2      = "E9127-004"
	CodeRuneIDType      = "E9127-011"
	CodeSlotIDType      = "E9127-012"
	CodeRuneFieldType   = "E9127-021"

	// tcrPrefix groups the type contract codes.
	tcrPrefix = "E9127-01"
)

// Layer is an ECS layer tag.
type Layer string

const (
	L1 Layer = "L1"
	L2 Layer = "L2"
	L3 Layer = "L3"
)

// LineRule flags a single source line.
type LineRule struct {
	Pattern  *regexp.Regexp
	Code     string
	Severity string
	Message  string
}

func lineRule(expr, code, severity, message string) LineRule {
	return LineRule{Pattern: regexp.MustCompile(expr), Code: code, Severity: severity, Message: message}
}

// layerMarker assigns a layer to a file that contains any of its markers.
type layerMarker struct {
	layer   Layer
	markers []string
}

// Rules is the rule table the gate applies. Build it with DefaultRules.
type Rules struct {
	// Forbidden applies to every line.
	Forbidden []LineRule
	// LayerOnly applies to lines of files detected as the keyed layer.
	LayerOnly map[Layer][]LineRule
	// Types applies to every line.
	Types []LineRule

	layers []layerMarker
}

// DefaultRules returns the production rule table.
func DefaultRules() *Rules {
	return &Rules{
		Forbidden: []LineRule{
			lineRule(`use bevy::`, CodeForbiddenEngine, report.SeverityCritical, "bevy import forbidden - use sx9_ecs_prelude"),
			lineRule(`use bevy_ecs::`, CodeForbiddenEngine, report.SeverityCritical, "bevy_ecs import forbidden - use sx9_ecs_prelude"),
			lineRule(`bevy::prelude::\*`, CodeForbiddenEngine, report.SeverityCritical, "bevy prelude forbidden"),
		},
		LayerOnly: map[Layer][]LineRule{
			L2: {
				lineRule(`\basync\s+fn\b`, CodeAsyncInL2, report.SeverityHigh, "async forbidden in L2 layer"),
				lineRule(`\.await\b`, CodeAsyncInL2, report.SeverityHigh, "await forbidden in L2 layer"),
				lineRule(`\bString\b`, CodeStringInL2, report.SeverityMedium, "String in hot-path - prefer &str or integers"),
			},
		},
		Types: []LineRule{
			lineRule(`type\s+RuneId\s*=\s*(char|String|&str|i32|i64|u8|u16)`, CodeRuneIDType, report.SeverityHigh, "RuneId must be u32"),
			lineRule(`type\s+SlotId\s*=\s*(char|String|&str|i32|i64|u8|u16|u32)`, CodeSlotIDType, report.SeverityHigh, "SlotId must be u64"),
			lineRule(`rune:\s*(?:char|String|&str)\b`, CodeRuneFieldType, report.SeverityHigh, "Rune must be u32, not char/String"),
		},
		layers: []layerMarker{
			{L1, []string{"use apecs::", "async fn"}},
			{L2, []string{"use legion::", "sx9_ecs_prelude"}},
			{L3, []string{"use atlas::", "nats::"}},
		},
	}
}

// DetectLayer returns the first layer whose markers appear in content, in L1, L2, L3 order.
func (r *Rules) DetectLayer(content string) (Layer, bool) {
	for _, lm := range r.layers {
		for _, m := range lm.markers {
			if strings.Contains(content, m) {
				return lm.layer, true
			}
		}
	}
	return "", false
}

// CheckFile applies the rules to each non-comment line of one file. layer is the file's own
// detected layer, empty when none.
func (r *Rules) CheckFile(relPath, content string, layer Layer) []report.Violation {
	var out []report.Violation
	layerRules := r.LayerOnly[layer]
	for i, line := range strings.Split(content, "\n") {
		if isCommentLine(line) {
			continue
		}
		apply := func(rules []LineRule) {
			for _, rule := range rules {
				if rule.Pattern.MatchString(line) {
					out = append(out, report.Violation{
						Code:     rule.Code,
						Severity: rule.Severity,
						File:     relPath,
						Line:     i + 1,
						Message:  report.String(rule.Message),
					})
				}
			}
		}
		apply(r.Forbidden)
		apply(layerRules)
		apply(r.Types)
	}
	return out
}

func isCommentLine(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*") || strings.HasPrefix(s, "*")
}
