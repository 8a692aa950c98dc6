package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lectern/internal/config"
	"lectern/internal/logging"
)

type sheetFixture struct {
	names  [][]string
	embeds [][]string

	batch struct {
		ValueInputOption string `json:"valueInputOption"`
		Data             []struct {
			Range  string     `json:"range"`
			Values [][]string `json:"values"`
		} `json:"data"`
	}
	batchCalls int
}

func (f *sheetFixture) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			column := f.names
			if strings.Contains(r.URL.Path, "W1") {
				column = f.embeds
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"values": column})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "values:batchUpdate"):
			f.batchCalls++
			if err := json.NewDecoder(r.Body).Decode(&f.batch); err != nil {
				t.Errorf("decode batch update: %v", err)
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func testSheetsClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Sheets.BaseURL = server.URL
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Sheets.SheetName = "Videos"
	return NewClient(&cfg, logging.NewNop())
}

func TestUpdateEmbedsMatchesAndWrites(t *testing.T) {
	fixture := &sheetFixture{
		names:  [][]string{{"Header"}, {"2025-T1-U1-L1-SCI-P0001-Ahmed--{Intro}"}, {"other"}},
		embeds: [][]string{{"Embed"}},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	result, err := testSheetsClient(t, server).UpdateEmbeds(context.Background(), []Video{
		{Name: "2025-T1-U1-L1-SCI-P0001-AHMED--{Intro}.mp4", EmbedCode: "<iframe/>"},
	})
	if err != nil {
		t.Fatalf("UpdateEmbeds: %v", err)
	}
	if result.Updated != 1 || len(result.NotFoundNames) != 0 || len(result.SkippedNames) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if fixture.batchCalls != 1 {
		t.Fatalf("batchUpdate called %d times, want 1", fixture.batchCalls)
	}
	if got := fixture.batch.Data[0].Range; got != "Videos!W2" {
		t.Errorf("range = %q, want Videos!W2", got)
	}
	if got := fixture.batch.Data[0].Values[0][0]; got != "<iframe/>" {
		t.Errorf("value = %q, want embed markup", got)
	}
}

func TestUpdateEmbedsNeverOverwrites(t *testing.T) {
	fixture := &sheetFixture{
		names:  [][]string{{"lesson-one"}, {"lesson-two"}},
		embeds: [][]string{{"<iframe already/>"}, {""}},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	result, err := testSheetsClient(t, server).UpdateEmbeds(context.Background(), []Video{
		{Name: "lesson-one.mp4", EmbedCode: "<iframe new/>"},
		{Name: "lesson-two.mp4", EmbedCode: "<iframe new/>"},
	})
	if err != nil {
		t.Fatalf("UpdateEmbeds: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}
	if len(result.SkippedNames) != 1 || result.SkippedNames[0] != "lesson-one.mp4" {
		t.Errorf("SkippedNames = %v, want [lesson-one.mp4]", result.SkippedNames)
	}
}

func TestUpdateEmbedsReportsMissingRows(t *testing.T) {
	fixture := &sheetFixture{names: [][]string{{"known"}}}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	result, err := testSheetsClient(t, server).UpdateEmbeds(context.Background(), []Video{
		{Name: "unknown.mp4", EmbedCode: "<iframe/>"},
	})
	if err != nil {
		t.Fatalf("UpdateEmbeds: %v", err)
	}
	if result.Updated != 0 || fixture.batchCalls != 0 {
		t.Errorf("nothing should be written, got %+v after %d calls", result, fixture.batchCalls)
	}
	if len(result.NotFoundNames) != 1 || result.NotFoundNames[0] != "unknown.mp4" {
		t.Errorf("NotFoundNames = %v, want [unknown.mp4]", result.NotFoundNames)
	}
}

func TestMatchKeyNormalization(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Lesson-One.mp4", "lesson-one"},
		{"  spaced.MOV ", "SPACED"},
		{"no-extension", "NO-EXTENSION"},
	}
	for _, tt := range tests {
		if matchKey(tt.a) != matchKey(tt.b) {
			t.Errorf("matchKey(%q) != matchKey(%q)", tt.a, tt.b)
		}
	}
	if matchKey("v1.2") != matchKey("V1.2") {
		t.Error("dotted version suffix should not be treated as an extension")
	}
}
