package aggregate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgeqa/internal/report"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func inputs(structure, complexity, arch, pattern int) Inputs {
	return Inputs{
		CrateName: "demo",
		Static: report.StaticReport{
			StructureScore:  report.Int(structure),
			ComplexityScore: report.Int(complexity),
		},
		Arch:    report.ArchReport{Score: report.Int(arch)},
		Pattern: report.PatternReport{Score: report.Int(pattern)},
	}
}

func TestDefaultPolicy_IsValid(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-12)
}

func TestPolicy_Validate(t *testing.T) {
	t.Run("weights must sum to one", func(t *testing.T) {
		p := DefaultPolicy()
		p.Weights.Pattern = 0.5
		assert.True(t, errors.Is(p.Validate(), ErrInvalidPolicy))
	})

	t.Run("zero weight", func(t *testing.T) {
		p := DefaultPolicy()
		p.Weights = Weights{Structure: 0.5, Complexity: 0.5}
		assert.True(t, errors.Is(p.Validate(), ErrInvalidPolicy))
	})

	t.Run("thresholds must descend", func(t *testing.T) {
		p := DefaultPolicy()
		p.Thresholds.B = 90
		assert.True(t, errors.Is(p.Validate(), ErrInvalidPolicy))
	})
}

func TestAggregate_WeightedScore(t *testing.T) {
	v := Aggregate(DefaultPolicy(), inputs(90, 95, 80, 60), fixedNow)

	assert.Equal(t, 81, v.Score, "81.25 rounds to 81")
	assert.Equal(t, report.GradeB, v.Grade)
	assert.True(t, v.Pass)
	assert.Empty(t, v.RefactorDirectives)
	assert.Equal(t, "demo", v.CrateName)
	assert.Equal(t, "qa-20250304-050607", v.LoadsetID)
	assert.Equal(t, report.SchemaVersion, v.SchemaVersion)

	require.Len(t, v.Dimensions, 4)
	assert.Equal(t, 90, v.Dimensions[DimStructure].Score)
	assert.Equal(t, 95, v.Dimensions[DimComplexity].Score)
	assert.Equal(t, 80, v.Dimensions[DimArch].Score)
	assert.Equal(t, 60, v.Dimensions[DimPattern].Score)
	for name, d := range v.Dimensions {
		assert.Equal(t, name, d.Name)
		assert.Equal(t, 0.25, d.Weight)
	}
}

func TestAggregate_RoundsHalfToEven(t *testing.T) {
	cases := []struct {
		s, c, a, p int
		want       int
	}{
		{50, 50, 51, 51, 50}, // 50.5
		{51, 51, 52, 52, 52}, // 51.5
		{51, 51, 51, 52, 51}, // 51.25
		{51, 51, 51, 54, 52}, // 51.75
	}
	for _, tc := range cases {
		v := Aggregate(DefaultPolicy(), inputs(tc.s, tc.c, tc.a, tc.p), fixedNow)
		assert.Equal(t, tc.want, v.Score, "%d/%d/%d/%d", tc.s, tc.c, tc.a, tc.p)
	}
}

func TestAggregate_GradeBoundaries(t *testing.T) {
	cases := []struct {
		score int
		grade report.Grade
		pass  bool
	}{
		{100, report.GradeA, true},
		{85, report.GradeA, true},
		{84, report.GradeB, true},
		{70, report.GradeB, true},
		{69, report.GradeC, false},
		{55, report.GradeC, false},
		{54, report.GradeD, false},
		{40, report.GradeD, false},
		{39, report.GradeF, false},
		{0, report.GradeF, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.grade), func(t *testing.T) {
			s := tc.score
			v := Aggregate(DefaultPolicy(), inputs(s, s, s, s), fixedNow)
			assert.Equal(t, s, v.Score)
			assert.Equal(t, tc.grade, v.Grade, "score %d", s)
			assert.Equal(t, tc.pass, v.Pass, "score %d", s)
		})
	}
}

func TestAggregate_HardOverride(t *testing.T) {
	in := inputs(100, 100, 100, 100)
	in.Arch.BevyFree = report.Bool(false)
	in.Arch.Violations = []report.Violation{{
		Code: "E9127-001", Severity: report.SeverityCritical, File: "src/lib.rs", Line: 1,
		Message: report.String("Bevy import forbidden"),
	}}

	v := Aggregate(DefaultPolicy(), in, fixedNow)
	assert.Equal(t, report.GradeF, v.Grade)
	assert.Equal(t, 39, v.Score)
	assert.False(t, v.Pass)
	assert.False(t, v.ArchSummary.BevyFree)
	require.NotEmpty(t, v.RefactorDirectives)
	assert.Equal(t, "CRITICAL: Replace all bevy imports with sx9_ecs_prelude", v.RefactorDirectives[0])
	assert.Equal(t, []string{
		"CRITICAL: Replace all bevy imports with sx9_ecs_prelude",
		"FIX: Bevy import forbidden",
	}, v.RefactorDirectives)

	t.Run("keeps a lower score", func(t *testing.T) {
		in := inputs(20, 20, 20, 20)
		in.Arch.BevyFree = report.Bool(false)
		v := Aggregate(DefaultPolicy(), in, fixedNow)
		assert.Equal(t, 20, v.Score)
		assert.Equal(t, report.GradeF, v.Grade)
	})
}

func TestAggregate_Defaults(t *testing.T) {
	v := Aggregate(DefaultPolicy(), Inputs{CrateName: "empty"}, fixedNow)

	for _, d := range v.Dimensions {
		assert.Equal(t, report.DefaultDimensionScore, d.Score, d.Name)
		assert.Zero(t, d.FindingsCount, d.Name)
	}
	assert.Equal(t, 50, v.Score)
	assert.Equal(t, report.GradeD, v.Grade)
	assert.False(t, v.Pass)
	assert.Nil(t, v.ArchSummary.EcsLayer)
	assert.True(t, v.ArchSummary.BevyFree, "unknown flags count as compliant")
	assert.True(t, v.ArchSummary.TcrCompliant)
	assert.Equal(t, report.PatternSummary{}, v.PatternSummary)
	assert.Equal(t, []string{
		"Reduce function complexity - split large functions",
		"Align functions with canonical N-V-N-N patterns",
	}, v.RefactorDirectives)
}

func TestAggregate_FindingsCounts(t *testing.T) {
	in := inputs(80, 80, 80, 80)
	in.Static.Findings = []report.Finding{{ID: "cargo-0"}, {ID: "cargo-1"}, {ID: "syntax-0"}}
	in.Arch.Violations = []report.Violation{{Code: "E9127-004", Severity: report.SeverityMedium}}
	in.Arch.EcsLayer = report.String("L2")
	in.Pattern.Matches = []report.Match{
		{Symbol: "a", Classification: report.StrongMatch},
		{Symbol: "b", Classification: report.PartialMatch},
		{Symbol: "c", Classification: report.Ambiguous},
		{Symbol: "d", Classification: report.NoMatch},
	}

	v := Aggregate(DefaultPolicy(), in, fixedNow)
	assert.Equal(t, 3, v.Dimensions[DimStructure].FindingsCount)
	assert.Equal(t, 0, v.Dimensions[DimComplexity].FindingsCount)
	assert.Equal(t, 1, v.Dimensions[DimArch].FindingsCount)
	assert.Equal(t, 3, v.Dimensions[DimPattern].FindingsCount)
	assert.Equal(t, report.PatternSummary{StrongMatches: 1, TotalFunctions: 4}, v.PatternSummary)
	require.NotNil(t, v.ArchSummary.EcsLayer)
	assert.Equal(t, "L2", *v.ArchSummary.EcsLayer)
	assert.Empty(t, v.RefactorDirectives, "medium violations get no directive")
}

func TestDirectives_OrderAndCap(t *testing.T) {
	violations := []report.Violation{
		{Code: "E9127-004", Severity: report.SeverityMedium, Message: report.String("String in L2")},
		{Code: "E9127-003", Severity: report.SeverityHigh, Message: report.String("first")},
		{Code: "E9127-001", Severity: report.SeverityCritical},
		{Code: "E9127-011", Severity: report.SeverityHigh, Message: report.String("third")},
		{Code: "E9127-012", Severity: report.SeverityHigh, Message: report.String("fourth")},
	}

	t.Run("all sources", func(t *testing.T) {
		got := Directives(DefaultPolicy(), 40, 40, false, violations)
		assert.Equal(t, []string{
			"CRITICAL: Replace all bevy imports with sx9_ecs_prelude",
			"Reduce function complexity - split large functions",
			"Align functions with canonical N-V-N-N patterns",
			"FIX: first",
			"FIX: Unknown violation",
		}, got)
	})

	t.Run("violations fill the remaining slots", func(t *testing.T) {
		got := Directives(DefaultPolicy(), 60, 60, true, violations)
		assert.Equal(t, []string{
			"FIX: first",
			"FIX: Unknown violation",
			"FIX: third",
			"FIX: fourth",
		}, got)
	})

	t.Run("empty message is kept verbatim", func(t *testing.T) {
		got := Directives(DefaultPolicy(), 60, 60, true, []report.Violation{
			{Code: "E9127-003", Severity: report.SeverityHigh, Message: report.String("")},
		})
		assert.Equal(t, []string{"FIX: "}, got)
	})

	t.Run("floor is exclusive", func(t *testing.T) {
		assert.Empty(t, Directives(DefaultPolicy(), 60, 60, true, nil))
		assert.Equal(t, []string{"Align functions with canonical N-V-N-N patterns"},
			Directives(DefaultPolicy(), 60, 59, true, nil))
	})

	t.Run("never more than five", func(t *testing.T) {
		many := make([]report.Violation, 20)
		for i := range many {
			many[i] = report.Violation{Severity: report.SeverityHigh, Message: report.String("x")}
		}
		assert.Len(t, Directives(DefaultPolicy(), 0, 0, false, many), 5)
	})
}

func TestVerdict_RoundTrip(t *testing.T) {
	in := inputs(70, 40, 55, 45)
	in.Arch.Violations = []report.Violation{{Code: "E9127-003", Severity: report.SeverityHigh, Message: report.String("async fn in L2")}}
	v := Aggregate(DefaultPolicy(), in, fixedNow)

	path := filepath.Join(t.TempDir(), "qa.json")
	require.NoError(t, report.SaveVerdict(path, v))
	loaded, err := report.LoadVerdict(path)
	require.NoError(t, err)
	require.True(t, loaded.Present)

	got := loaded.Report
	assert.Equal(t, v.Grade, got.Grade)
	assert.Equal(t, v.Score, got.Score)
	assert.Equal(t, v.Dimensions, got.Dimensions)
	assert.Equal(t, v.RefactorDirectives, got.RefactorDirectives)
	assert.Equal(t, v.PatternSummary, got.PatternSummary)
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Static:  filepath.Join(dir, "static.json"),
		Arch:    filepath.Join(dir, "arch.json"),
		Pattern: filepath.Join(dir, "pattern.json"),
	}

	t.Run("all absent", func(t *testing.T) {
		in, err := LoadInputs(paths, "ghost")
		require.NoError(t, err)
		assert.Equal(t, "ghost", in.CrateName)
		assert.Equal(t, 50, in.Static.Structure())
		assert.True(t, in.Arch.IsBevyFree())
	})

	t.Run("present reports are used", func(t *testing.T) {
		require.NoError(t, report.SaveArch(paths.Arch, &report.ArchReport{
			SchemaVersion: report.SchemaVersion,
			Score:         report.Int(90),
			BevyFree:      report.Bool(false),
		}))
		in, err := LoadInputs(paths, "demo")
		require.NoError(t, err)
		assert.Equal(t, 90, in.Arch.ScoreOrDefault())
		assert.False(t, in.Arch.IsBevyFree())
	})

	t.Run("malformed is fatal", func(t *testing.T) {
		require.NoError(t, os.WriteFile(paths.Pattern, []byte("{not json"), 0644))
		_, err := LoadInputs(paths, "demo")
		require.Error(t, err)
		assert.True(t, errors.Is(err, report.ErrMalformedArtifact))
	})
}
