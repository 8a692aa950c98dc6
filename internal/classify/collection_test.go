package classify_test

import (
	"testing"

	"lectern/internal/classify"
	"lectern/internal/filename"
)

func TestResolveCollectionRouting(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantName string
	}{
		{"full term 1", "M2-T1-U1-L1-SCI-P0078-Ahmed--{درس}.mp4", "T1-2025"},
		{"full term 2", "M2-T2-U1-L1-SCI-P0078-Ahmed--{درس}.mp4", "T2-2025"},
		{"question term 1", "M2-T1-U1-L1-SCI-P0078-Ahmed--{درس}-Q1.mp4", "T1-2025-QV"},
		{"question term 2", "M2-T2-U1-L1-SCI-P0078-Ahmed--{درس}-Q4.mp4", "T2-2025-QV"},
		{"revision with term", "RE-M2-T1-U1-L1-SCI-P0078-Ahmed--{مراجعة}.mp4", "RE-T1-2025"},
		{"revision without term", "RE-M2-SCI-P0078-Ahmed--{مراجعة}.mp4", "RE-2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := filename.Parse(tt.file)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			col := classify.ResolveCollection(parsed, "2025")
			if col.Name != tt.wantName {
				t.Fatalf("collection = %q, want %q", col.Name, tt.wantName)
			}
			if col.Reason == "" {
				t.Fatal("reason must never be empty")
			}
		})
	}
}

func TestResolveCollectionIsTotal(t *testing.T) {
	// A parsed record with no term still routes somewhere.
	parsed, err := filename.Parse("M1-AR-P0046-Zakaria--{نحو}.mp4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	col := classify.ResolveCollection(parsed, "2024")
	if col.Name != "T1-2024" {
		t.Fatalf("termless full content should default to T1, got %q", col.Name)
	}
	if col.Reason == "" {
		t.Fatal("reason must never be empty")
	}
}

func TestResolveCollectionParameterizedByYear(t *testing.T) {
	parsed, err := filename.Parse("M2-T2-U1-L1-SCI-P0078-Ahmed--{درس}.mp4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := classify.ResolveCollection(parsed, "2024").Name; got != "T2-2024" {
		t.Fatalf("year 2024 routing = %q, want T2-2024", got)
	}
	if got := classify.ResolveCollection(parsed, "2025").Name; got != "T2-2025" {
		t.Fatalf("year 2025 routing = %q, want T2-2025", got)
	}
}
