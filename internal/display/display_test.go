package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgeqa/internal/aggregate"
	"forgeqa/internal/report"
	"forgeqa/internal/storage"
)

func TestSummaryLines(t *testing.T) {
	assert.Equal(t, "Static QA: structure=80 complexity=50",
		StaticLine(&report.StaticReport{StructureScore: report.Int(80)}))

	assert.Equal(t, "Arch Compliance: score=100 layer=none bevy_free=true",
		ArchLine(&report.ArchReport{Score: report.Int(100)}))
	assert.Equal(t, "Arch Compliance: score=75 layer=L2 bevy_free=false",
		ArchLine(&report.ArchReport{Score: report.Int(75), EcsLayer: report.String("L2"), BevyFree: report.Bool(false)}))

	assert.Equal(t, "Pattern Match: score=66 strong=1/2",
		PatternLine(&report.PatternReport{Score: report.Int(66), Matches: []report.Match{
			{Classification: report.StrongMatch},
			{Classification: report.PartialMatch},
		}}))
}

func TestDimensionTable(t *testing.T) {
	v := aggregate.Aggregate(aggregate.DefaultPolicy(), aggregate.Inputs{CrateName: "demo"}, time.Now())
	data := DimensionTable(v)
	require.Len(t, data, 5)
	assert.Equal(t, []string{"Dimension", "Score", "Weight", "Findings"}, data[0])
	assert.Equal(t, []string{"structure", "50/100", "0.25", "0"}, data[1])
	assert.Equal(t, "complexity", data[2][0])
	assert.Equal(t, "pattern", data[3][0])
	assert.Equal(t, "arch", data[4][0])
}

func TestRun(t *testing.T) {
	v := aggregate.Aggregate(aggregate.DefaultPolicy(), aggregate.Inputs{CrateName: "demo"}, time.Now())
	e := &storage.Entry{RunID: "run-1", CrateName: "demo", RecordedAt: time.Now(), Verdict: *v}
	assert.NoError(t, Run(e, v.Dimensions))
	assert.NoError(t, Run(e, nil))
}

func TestHistoryTable(t *testing.T) {
	at := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	data := HistoryTable([]storage.Entry{{
		RunID:      "run-1",
		CrateName:  "demo",
		RecordedAt: at,
		Verdict:    report.Verdict{Grade: report.GradeB, Score: 81, Pass: true, RefactorDirectives: []string{"x"}},
	}})
	require.Len(t, data, 2)
	assert.Equal(t, []string{"2025-05-06T07:08:09Z", "run-1", "B", "81", "true", "1"}, data[1])
}
