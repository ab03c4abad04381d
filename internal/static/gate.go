// Package static grades a crate's layout and file sizes and collects compiler and syntax
// findings.
package static

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/montanaflynn/stats"

	"forgeqa/internal/cargo"
	"forgeqa/internal/crawler"
	"forgeqa/internal/extractor"
	"forgeqa/internal/logger"
	"forgeqa/internal/report"
)

const (
	// PassScore is the minimum structure and complexity score the gate accepts.
	PassScore = 50
	// LongFunctionLines is the span above which a function is reported as long.
	LongFunctionLines = 80

	renderedWidth = 200
)

// Checker is the compiler collaborator.
type Checker interface {
	Check(ctx context.Context, crateDir string) ([]cargo.Diagnostic, error)
}

// Gate runs the static checks on a crate.
type Gate struct {
	checker   Checker
	crawler   *crawler.Crawler
	extractor *extractor.Extractor
}

// NewGate wires a gate with the given compiler collaborator.
func NewGate(checker Checker) (*Gate, error) {
	ext, err := extractor.NewExtractor("rust")
	if err != nil {
		return nil, err
	}
	return &Gate{
		checker:   checker,
		crawler:   crawler.NewCrawler(),
		extractor: ext,
	}, nil
}

// Run produces the static report for a crate.
func (g *Gate) Run(ctx context.Context, crateRoot string, now time.Time) (*report.StaticReport, error) {
	log := logger.Named("static")
	start := time.Now()

	diags, err := g.checker.Check(ctx, crateRoot)
	if err != nil {
		return nil, err
	}
	findings := CompilerFindings(diags)

	structure := StructureScore(crateRoot, findings)

	files, err := g.crawler.Files(crateRoot)
	if err != nil && !errors.Is(err, crawler.ErrNoSourceTree) {
		return nil, errors.Wrapf(err, "walk %s", crateRoot)
	}

	lineCounts := make([]float64, 0, len(files))
	var syntax, long []report.Finding
	for _, f := range files {
		lineCounts = append(lineCounts, float64(CountLines(f.Content)))

		sr, err := g.extractor.Analyze(ctx, []byte(f.Content))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", f.RelPath)
		}
		for _, se := range sr.Errors {
			syntax = append(syntax, report.Finding{
				ID:       fmt.Sprintf("syntax-%d", len(syntax)),
				Severity: report.SeverityMedium,
				Score:    0.5,
				Message:  se.Message,
				File:     report.String(f.RelPath),
				Line:     report.Int(se.Line),
			})
		}
		for _, fn := range sr.Functions {
			if fn.Lines() <= LongFunctionLines {
				continue
			}
			long = append(long, report.Finding{
				ID:       fmt.Sprintf("long-fn-%d", len(long)),
				Severity: report.SeverityLow,
				Score:    0.2,
				Message:  fmt.Sprintf("function %s spans %d lines", fn.Name, fn.Lines()),
				File:     report.String(f.RelPath),
				Line:     report.Int(fn.StartLine),
			})
		}
	}
	complexity := ComplexityScore(lineCounts)

	findings = append(findings, syntax...)
	findings = append(findings, long...)

	log.Infow("static gate finished",
		logger.FieldCrate, crateRoot,
		"structure", structure,
		"complexity", complexity,
		logger.FieldCount, len(findings),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return &report.StaticReport{
		SchemaVersion:   report.SchemaVersion,
		LoadsetID:       report.LoadsetID("static", now),
		StructureScore:  report.Int(structure),
		ComplexityScore: report.Int(complexity),
		Findings:        findings,
	}, nil
}

// Passed reports whether a static report clears the gate.
func Passed(r *report.StaticReport) bool {
	return r.Structure() >= PassScore && r.Complexity() >= PassScore
}

// CompilerFindings numbers compiler diagnostics as cargo-<n> findings.
func CompilerFindings(diags []cargo.Diagnostic) []report.Finding {
	out := make([]report.Finding, 0, len(diags))
	for i, d := range diags {
		f := report.Finding{
			ID:       fmt.Sprintf("cargo-%d", i),
			Severity: report.SeverityMedium,
			Score:    0.5,
			Message:  truncate(d.Rendered, renderedWidth),
		}
		if d.IsError() {
			f.Severity = report.SeverityHigh
			f.Score = 0.8
		}
		if d.HasSpan {
			f.File = report.String(d.File)
			f.Line = report.Int(d.Line)
		}
		out = append(out, f)
	}
	return out
}

// StructureScore starts at 100 and deducts for missing crate layout and for severe
// compiler findings. It never goes below zero.
func StructureScore(crateRoot string, findings []report.Finding) int {
	score := 100
	if !exists(filepath.Join(crateRoot, "src", "lib.rs")) && !exists(filepath.Join(crateRoot, "src", "main.rs")) {
		score -= 20
	}
	if !exists(filepath.Join(crateRoot, "Cargo.toml")) {
		score -= 30
	}
	if !exists(filepath.Join(crateRoot, "tests")) {
		score -= 10
	}
	score = max(score, 0)

	for _, f := range findings {
		switch f.Severity {
		case report.SeverityCritical:
			score = max(0, score-20)
		case report.SeverityHigh:
			score = max(0, score-10)
		}
	}
	return score
}

// ComplexityScore buckets the mean line count per source file.
func ComplexityScore(lineCounts []float64) int {
	total, err := stats.Sum(lineCounts)
	if err != nil || total == 0 {
		return 100
	}
	mean, err := stats.Mean(lineCounts)
	if err != nil {
		return 100
	}
	if largest, err := stats.Max(lineCounts); err == nil {
		logger.Named("static").Debugw("file sizes", "mean_lines", mean, "max_lines", largest)
	}

	switch {
	case mean > 500:
		return 50
	case mean > 300:
		return 65
	case mean > 150:
		return 80
	default:
		return 90
	}
}

// CountLines counts lines the way a line reader does: a trailing fragment without a newline
// is a line, an empty file has none.
func CountLines(content string) int {
	n := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
