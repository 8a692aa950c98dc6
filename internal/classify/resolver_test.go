package classify_test

import (
	"testing"

	"lectern/internal/classify"
	"lectern/internal/filename"
)

func mustParse(t *testing.T, name string) *filename.Parsed {
	t.Helper()
	parsed, err := filename.Parse(name)
	if err != nil {
		t.Fatalf("parse %q: %v", name, err)
	}
	return parsed
}

func TestResolveLibraryExactMatchSaturates(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-AR-P0078-Muslim Elsayed--{الدرس}.mp4")
	libraries := []classify.Library{
		{ID: "1", Name: "M1-AR-P0046-Zakaria Seif Eldin"},
		{ID: "2", Name: "M2-SCI-AR-P0078-Muslim Elsayed"},
		{ID: "3", Name: "J6-SS-P0114-Ahmed Bakr"},
	}

	match := classify.ResolveLibrary(parsed, libraries)
	if match.Library == nil || match.Library.ID != "2" {
		t.Fatalf("expected library 2, got %+v", match.Library)
	}
	if match.Confidence != classify.MaxConfidence {
		t.Fatalf("all four attributes aligned, confidence = %d, want %d", match.Confidence, classify.MaxConfidence)
	}
}

func TestResolveLibraryMapsSecondaryYear(t *testing.T) {
	// S2 filenames land in M2-prefixed libraries.
	parsed := mustParse(t, "S2-T1-U1-L1-SCI-AR-P0078-Muslim Elsayed--{الدرس}.mp4")
	libraries := []classify.Library{
		{ID: "2", Name: "M2-SCI-AR-P0078-Muslim Elsayed"},
	}
	match := classify.ResolveLibrary(parsed, libraries)
	if match.Confidence != classify.MaxConfidence {
		t.Fatalf("confidence = %d, want saturation after S2->M2 mapping", match.Confidence)
	}
}

func TestResolveLibraryScoreIsMonotonic(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-P0078-Muslim--{الدرس}.mp4")

	codeOnly := classify.ResolveLibrary(parsed, []classify.Library{{ID: "a", Name: "XX-YY-P0078-Somebody"}})
	codeAndYear := classify.ResolveLibrary(parsed, []classify.Library{{ID: "b", Name: "M2-YY-P0078-Somebody"}})
	codeYearBranch := classify.ResolveLibrary(parsed, []classify.Library{{ID: "c", Name: "M2-SCI-P0078-Somebody"}})

	if !(codeOnly.Confidence < codeAndYear.Confidence && codeAndYear.Confidence < codeYearBranch.Confidence) {
		t.Fatalf("scores should grow with matched attributes: %d, %d, %d",
			codeOnly.Confidence, codeAndYear.Confidence, codeYearBranch.Confidence)
	}
}

func TestResolveLibraryTeacherNameCaseInsensitive(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-P0078-MUSLIM ELSAYED--{الدرس}.mp4")
	libraries := []classify.Library{
		{ID: "2", Name: "M2-SCI-P0078-Muslim Elsayed"},
	}
	match := classify.ResolveLibrary(parsed, libraries)
	if match.Confidence != classify.MaxConfidence {
		t.Fatalf("case-folded teacher name should match, confidence = %d", match.Confidence)
	}
}

func TestResolveLibraryKeepsAlternativesSorted(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-P0078-Muslim--{الدرس}.mp4")
	libraries := []classify.Library{
		{ID: "low", Name: "M2-HIST-P0999-Other"},      // year only
		{ID: "high", Name: "M2-SCI-P0078-Muslim"},     // everything
		{ID: "mid", Name: "M3-SCI-P0078-Someone"},     // code + branch
		{ID: "none", Name: "J4-EN-P0001-Unrelated X"}, // nothing
	}

	match := classify.ResolveLibrary(parsed, libraries)
	if len(match.Alternatives) != 3 {
		t.Fatalf("zero-score candidates must be dropped, got %d alternatives", len(match.Alternatives))
	}
	for i := 1; i < len(match.Alternatives); i++ {
		if match.Alternatives[i-1].Score < match.Alternatives[i].Score {
			t.Fatalf("alternatives not sorted descending: %+v", match.Alternatives)
		}
	}
	if match.Alternatives[0].Library.ID != "high" {
		t.Fatalf("best alternative = %q, want high", match.Alternatives[0].Library.ID)
	}
}

func TestResolveLibraryTiesKeepInputOrder(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-P0078-Muslim--{الدرس}.mp4")
	libraries := []classify.Library{
		{ID: "first", Name: "M2-something"},
		{ID: "second", Name: "M2-other"},
	}
	match := classify.ResolveLibrary(parsed, libraries)
	if len(match.Alternatives) != 2 {
		t.Fatalf("expected both year-only candidates, got %d", len(match.Alternatives))
	}
	if match.Alternatives[0].Library.ID != "first" {
		t.Fatalf("stable sort must keep input order on ties, got %q first", match.Alternatives[0].Library.ID)
	}
}

func TestResolveLibraryNoCandidates(t *testing.T) {
	parsed := mustParse(t, "M2-T1-U1-L1-SCI-P0078-Muslim--{الدرس}.mp4")
	match := classify.ResolveLibrary(parsed, []classify.Library{{ID: "x", Name: "unrelated"}})
	if match.Library != nil || match.Confidence != 0 {
		t.Fatalf("expected empty match, got %+v", match)
	}
}
