// Package display renders gate results for a terminal.
package display

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"forgeqa/internal/aggregate"
	"forgeqa/internal/report"
	"forgeqa/internal/storage"
)

// StaticLine is the one-line static gate summary.
func StaticLine(r *report.StaticReport) string {
	return fmt.Sprintf("Static QA: structure=%d complexity=%d", r.Structure(), r.Complexity())
}

// ArchLine is the one-line architecture gate summary.
func ArchLine(r *report.ArchReport) string {
	layer := "none"
	if r.EcsLayer != nil {
		layer = *r.EcsLayer
	}
	return fmt.Sprintf("Arch Compliance: score=%d layer=%s bevy_free=%t", r.ScoreOrDefault(), layer, r.IsBevyFree())
}

// PatternLine is the one-line pattern gate summary.
func PatternLine(r *report.PatternReport) string {
	return fmt.Sprintf("Pattern Match: score=%d strong=%d/%d",
		r.ScoreOrDefault(), r.Count(report.StrongMatch), len(r.Matches))
}

// GateResult prints a summary line as success or warning depending on whether the gate
// passed.
func GateResult(line string, passed bool) {
	if passed {
		pterm.Success.Println(line)
		return
	}
	pterm.Warning.Println(line)
}

// DimensionTable lays out the verdict dimensions in a fixed order.
func DimensionTable(v *report.Verdict) pterm.TableData {
	return dimensionTable(v.Dimensions)
}

func dimensionTable(dims map[string]report.Dimension) pterm.TableData {
	data := pterm.TableData{{"Dimension", "Score", "Weight", "Findings"}}
	for _, name := range []string{aggregate.DimStructure, aggregate.DimComplexity, aggregate.DimPattern, aggregate.DimArch} {
		d, ok := dims[name]
		if !ok {
			continue
		}
		data = append(data, []string{
			name,
			fmt.Sprintf("%d/100", d.Score),
			strconv.FormatFloat(d.Weight, 'f', 2, 64),
			strconv.Itoa(d.FindingsCount),
		})
	}
	return data
}

// Verdict prints the final grade, the dimension table and the directives.
func Verdict(v *report.Verdict) error {
	pterm.DefaultHeader.WithFullWidth().Printf("QA RESULT %s: Grade %s (%d/100)", v.CrateName, v.Grade, v.Score)
	pterm.Println()
	if v.Pass {
		pterm.Success.Println("PASS")
	} else {
		pterm.Error.Println("FAIL")
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(DimensionTable(v)).Render(); err != nil {
		return err
	}

	if len(v.RefactorDirectives) > 0 {
		pterm.Println()
		pterm.Info.Println("Directives:")
		for _, d := range v.RefactorDirectives {
			pterm.Printf("  • %s\n", d)
		}
	}
	return nil
}

// HistoryTable lays out ledger entries, newest first.
func HistoryTable(entries []storage.Entry) pterm.TableData {
	data := pterm.TableData{{"Recorded", "Run", "Grade", "Score", "Pass", "Directives"}}
	for _, e := range entries {
		data = append(data, []string{
			e.RecordedAt.Format(time.RFC3339),
			e.RunID,
			string(e.Verdict.Grade),
			strconv.Itoa(e.Verdict.Score),
			strconv.FormatBool(e.Verdict.Pass),
			strconv.Itoa(len(e.Verdict.RefactorDirectives)),
		})
	}
	return data
}

// History prints a crate's ledger.
func History(crateName string, entries []storage.Entry) error {
	if len(entries) == 0 {
		pterm.Info.Printf("No recorded runs for %s\n", crateName)
		return nil
	}
	pterm.Info.Printf("History for %s (%d runs)\n", crateName, len(entries))
	return pterm.DefaultTable.WithHasHeader().WithData(HistoryTable(entries)).Render()
}

// Run prints one recorded run with the dimension rows stored for it in the ledger.
func Run(e *storage.Entry, dims map[string]report.Dimension) error {
	pterm.Info.Printf("Run %s of %s at %s: Grade %s (%d/100), pass=%t\n",
		e.RunID, e.CrateName, e.RecordedAt.Format(time.RFC3339), e.Verdict.Grade, e.Verdict.Score, e.Verdict.Pass)
	return pterm.DefaultTable.WithHasHeader().WithData(dimensionTable(dims)).Render()
}
