package pattern

import (
	"time"

	"github.com/cockroachdb/errors"

	"forgeqa/internal/crawler"
	"forgeqa/internal/extractor"
	"forgeqa/internal/logger"
	"forgeqa/internal/registry"
	"forgeqa/internal/report"
)

// MatchFile extracts every unit from one file and classifies it.
func MatchFile(relPath, content string, reg *registry.Registry) []report.Match {
	log := logger.Named("pattern")
	var out []report.Match
	sc := extractor.NewScanner(content)
	for sc.Next() {
		u := sc.Unit()
		ranked := Rank(u, reg)
		m := report.Match{
			File:           relPath,
			Symbol:         u.Name,
			Classification: Classify(ranked),
			Candidates:     Top(ranked),
		}
		log.Debugw("classified unit",
			logger.FieldFile, relPath,
			logger.FieldSymbol, u.Name,
			logger.FieldLine, u.Line,
			"classification", m.Classification)
		out = append(out, m)
	}
	if n := sc.Skipped(); n > 0 {
		log.Debugw("skipped unbalanced units",
			logger.FieldFile, relPath,
			logger.FieldCount, n)
	}
	return out
}

// Scan classifies every unit of every Rust file under the crate's src tree. A crate without
// a src tree has no units.
func Scan(c *crawler.Crawler, crateRoot string, reg *registry.Registry) ([]report.Match, error) {
	var matches []report.Match
	err := c.Walk(crateRoot, func(f crawler.SourceFile) error {
		matches = append(matches, MatchFile(f.RelPath, f.Content, reg)...)
		return nil
	})
	if errors.Is(err, crawler.ErrNoSourceTree) {
		logger.Named("pattern").Warnw("no source tree, nothing to match", logger.FieldCrate, crateRoot)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Run builds the pattern report for a crate.
func Run(crateRoot string, reg *registry.Registry, now time.Time) (*report.PatternReport, error) {
	matches, err := Scan(crawler.NewCrawler(), crateRoot, reg)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", crateRoot)
	}
	if matches == nil {
		matches = []report.Match{}
	}
	return &report.PatternReport{
		SchemaVersion: report.SchemaVersion,
		LoadsetID:     report.LoadsetID("pattern", now),
		Score:         report.Int(Score(matches)),
		Matches:       matches,
	}, nil
}
