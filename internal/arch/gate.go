package arch

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"forgeqa/internal/crawler"
	"forgeqa/internal/logger"
	"forgeqa/internal/report"
)

// PassScore is the lowest compliance score the gate accepts.
const PassScore = 50

var severityCost = map[string]int{
	report.SeverityCritical: 25,
	report.SeverityHigh:     15,
	report.SeverityMedium:   5,
}

// Scan walks the crate and returns every violation plus the first layer detected in walk
// order. A crate without a src tree yields no violations and no layer.
func Scan(c *crawler.Crawler, crateRoot string, rules *Rules) ([]report.Violation, *string, error) {
	var (
		violations []report.Violation
		detected   *string
	)
	err := c.Walk(crateRoot, func(f crawler.SourceFile) error {
		layer, ok := rules.DetectLayer(f.Content)
		if ok && detected == nil {
			detected = report.String(string(layer))
		}
		for _, v := range rules.CheckFile(f.RelPath, f.Content, layer) {
			logger.Named("arch").Debugw("violation",
				logger.FieldFile, v.File,
				logger.FieldLine, v.Line,
				"code", v.Code)
			violations = append(violations, v)
		}
		return nil
	})
	if errors.Is(err, crawler.ErrNoSourceTree) {
		// Absence of sources reads as compliance; surface it so it is not mistaken for a clean crate.
		logger.Named("arch").Warnw("no source tree, reporting vacuous compliance", logger.FieldCrate, crateRoot)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return violations, detected, nil
}

// Score deducts 25, 15 and 5 per critical, high and medium violation from 100, floored at 0.
func Score(violations []report.Violation) int {
	score := 100
	for _, v := range violations {
		score -= severityCost[v.Severity]
	}
	return max(0, score)
}

func none(violations []report.Violation, pred func(code string) bool) bool {
	for _, v := range violations {
		if pred(v.Code) {
			return false
		}
	}
	return true
}

// Run builds the architecture report for a crate.
func Run(crateRoot string, rules *Rules, now time.Time) (*report.ArchReport, error) {
	violations, layer, err := Scan(crawler.NewCrawler(), crateRoot, rules)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", crateRoot)
	}
	if violations == nil {
		violations = []report.Violation{}
	}

	r := &report.ArchReport{
		SchemaVersion: report.SchemaVersion,
		LoadsetID:     report.LoadsetID("arch", now),
		Score:         report.Int(Score(violations)),
		EcsLayer:      layer,
		BevyFree: report.Bool(none(violations, func(c string) bool {
			return c == CodeForbiddenEngine
		})),
		TcrCompliant: report.Bool(none(violations, func(c string) bool {
			return strings.HasPrefix(c, tcrPrefix)
		})),
		RuneValid: report.Bool(none(violations, func(c string) bool {
			return c == CodeRuneIDType || c == CodeRuneFieldType
		})),
		SlotValid: report.Bool(none(violations, func(c string) bool {
			return c == CodeSlotIDType
		})),
		Violations: violations,
	}
	logger.Named("arch").Infow("arch gate finished",
		logger.FieldCrate, crateRoot,
		logger.FieldScore, *r.Score,
		logger.FieldCount, len(violations))
	return r, nil
}

// Passed reports whether an architecture report clears the gate: no forbidden engine and a
// score of at least 50.
func Passed(r *report.ArchReport) bool {
	return r.IsBevyFree() && r.ScoreOrDefault() >= PassScore
}
