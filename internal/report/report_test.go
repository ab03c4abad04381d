package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_AbsentIsNotAnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	st, err := LoadStatic(missing)
	require.NoError(t, err)
	assert.False(t, st.Present)
	assert.Equal(t, 50, st.Report.Structure())
	assert.Equal(t, 50, st.Report.Complexity())

	ar, err := LoadArch(missing)
	require.NoError(t, err)
	assert.False(t, ar.Present)
	assert.Equal(t, 50, ar.Report.ScoreOrDefault())
	assert.True(t, ar.Report.IsBevyFree())
	assert.True(t, ar.Report.IsTcrCompliant())
	assert.Nil(t, ar.Report.EcsLayer)

	pt, err := LoadPattern(missing)
	require.NoError(t, err)
	assert.False(t, pt.Present)
	assert.Equal(t, 50, pt.Report.ScoreOrDefault())
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated json":     `{"score": 80`,
		"not an object":      `[1, 2, 3]`,
		"score out of range": `{"score": 180}`,
		"score wrong type":   `{"score": "high"}`,
		"bad severity":       `{"violations": [{"code": "X", "severity": "urgent"}]}`,
		"bad flag type":      `{"bevy_free": "no"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadArch(writeJSON(t, "arch.json", body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedArtifact))
		})
	}

	t.Run("pattern candidates over cap", func(t *testing.T) {
		body := `{"matches": [{"file": "a", "symbol": "b", "classification": "NO_MATCH",
			"candidates": [{"pattern_id": "1"}, {"pattern_id": "2"}, {"pattern_id": "3"}, {"pattern_id": "4"}]}]}`
		_, err := LoadPattern(writeJSON(t, "pattern.json", body))
		assert.True(t, errors.Is(err, ErrMalformedArtifact))
	})
}

func TestViolation_MessageOr(t *testing.T) {
	path := writeJSON(t, "arch.json", `{"violations": [
		{"code": "E9127-003", "severity": "high", "message": ""},
		{"code": "E9127-011", "severity": "high"},
		{"code": "E9127-012", "severity": "high", "message": "slot id"}]}`)
	loaded, err := LoadArch(path)
	require.NoError(t, err)
	require.Len(t, loaded.Report.Violations, 3)

	assert.Equal(t, "", loaded.Report.Violations[0].MessageOr("fallback"))
	assert.Equal(t, "fallback", loaded.Report.Violations[1].MessageOr("fallback"))
	assert.Equal(t, "slot id", loaded.Report.Violations[2].MessageOr("fallback"))
}

func TestLoad_PartialFieldsDefault(t *testing.T) {
	path := writeJSON(t, "arch.json", `{"violations": [], "bevy_free": false}`)
	ar, err := LoadArch(path)
	require.NoError(t, err)
	require.True(t, ar.Present)
	assert.Equal(t, 50, ar.Report.ScoreOrDefault())
	assert.False(t, ar.Report.IsBevyFree())
	assert.True(t, ar.Report.IsTcrCompliant())

	st, err := LoadStatic(writeJSON(t, "static.json", `{"structure_score": 90}`))
	require.NoError(t, err)
	assert.Equal(t, 90, st.Report.Structure())
	assert.Equal(t, 50, st.Report.Complexity())
}

func sampleVerdict() *Verdict {
	return &Verdict{
		SchemaVersion: SchemaVersion,
		LoadsetID:     "qa-20250101-000000",
		CrateName:     "sx9-demo",
		Grade:         GradeB,
		Score:         81,
		Pass:          true,
		Dimensions: map[string]Dimension{
			"structure":  {Name: "structure", Score: 90, Weight: 0.25, FindingsCount: 2},
			"complexity": {Name: "complexity", Score: 95, Weight: 0.25},
			"arch":       {Name: "arch", Score: 80, Weight: 0.25, FindingsCount: 1},
			"pattern":    {Name: "pattern", Score: 60, Weight: 0.25, FindingsCount: 3},
		},
		ArchSummary:        ArchSummary{EcsLayer: String("L2"), BevyFree: true, TcrCompliant: true},
		PatternSummary:     PatternSummary{StrongMatches: 1, TotalFunctions: 4},
		RefactorDirectives: []string{"FIX: RuneId must be u32"},
	}
}

func TestVerdict_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "qa.report.json")
	v := sampleVerdict()
	require.NoError(t, SaveVerdict(path, v))

	loaded, err := LoadVerdict(path)
	require.NoError(t, err)
	require.True(t, loaded.Present)
	assert.Equal(t, *v, loaded.Report)

	// saving the parsed verdict again must produce identical bytes
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	second := filepath.Join(t.TempDir(), "again.json")
	require.NoError(t, SaveVerdict(second, &loaded.Report))
	again, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))
}

func TestSaveVerdict(t *testing.T) {
	t.Run("nil directives serialize as an empty list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "qa.json")
		v := sampleVerdict()
		v.RefactorDirectives = nil
		require.NoError(t, SaveVerdict(path, v))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"refactor_directives": []`)
		assert.Contains(t, string(data), `"ecs_layer": "L2"`)
	})

	t.Run("schema rejects an out of range score", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "qa.json")
		v := sampleVerdict()
		v.Score = 140
		err := SaveVerdict(path, v)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSchemaViolation))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "nothing is written on failure")
	})

	t.Run("schema rejects too many directives", func(t *testing.T) {
		v := sampleVerdict()
		v.RefactorDirectives = []string{"1", "2", "3", "4", "5", "6"}
		err := SaveVerdict(filepath.Join(t.TempDir(), "qa.json"), v)
		assert.True(t, errors.Is(err, ErrSchemaViolation))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveVerdict(filepath.Join(dir, "qa.json"), sampleVerdict()))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "qa.json", entries[0].Name())
	})
}

func TestSavePattern_EmptyCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.json")
	r := &PatternReport{SchemaVersion: SchemaVersion, Score: Int(70), Matches: []Match{{
		File: "src/lib.rs", Symbol: "f", Classification: NoMatch,
	}}}
	require.NoError(t, SavePattern(path, r))

	loaded, err := LoadPattern(path)
	require.NoError(t, err)
	assert.Equal(t, 70, loaded.Report.ScoreOrDefault())
	require.Len(t, loaded.Report.Matches, 1)
	assert.NotNil(t, loaded.Report.Matches[0].Candidates)
	assert.Equal(t, 1, loaded.Report.Count(NoMatch))
	assert.Equal(t, 0, loaded.Report.Count(StrongMatch))
}

func TestLoadsetID(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("x", 3600))
	assert.Equal(t, "qa-20250304-040607", LoadsetID("qa", ts))
}
