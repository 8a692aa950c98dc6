package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeHostServer emulates the video host REST surface used by the CLI.
type fakeHostServer struct {
	mu          sync.Mutex
	collections []map[string]string
	videos      []map[string]string
	uploads     int
}

func (f *fakeHostServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/videolibrary"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"Items": []map[string]any{
					{"Id": 101, "Name": "M1-SCI-P0001-Ahmed", "ApiKey": "lib-key"},
				},
			})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/collections"):
			_ = json.NewEncoder(w).Encode(map[string]any{"items": f.collections})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/collections"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			entry := map[string]string{"guid": fmt.Sprintf("col-%d", len(f.collections)+1), "name": body["name"]}
			f.collections = append(f.collections, entry)
			_ = json.NewEncoder(w).Encode(entry)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/videos"):
			_ = json.NewEncoder(w).Encode(map[string]any{"items": f.videos})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/videos"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			entry := map[string]string{"guid": fmt.Sprintf("vid-%d", len(f.videos)+1), "title": body["title"]}
			f.videos = append(f.videos, entry)
			_ = json.NewEncoder(w).Encode(entry)
		case r.Method == http.MethodPut:
			_, _ = io.Copy(io.Discard, r.Body)
			f.uploads++
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func writeCLIConfig(t *testing.T, hostURL, sheetsURL string) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[videohost]
api_key = "account-key"
base_url = %q
video_base_url = %q
requests_per_sec = 1000.0

[sheets]
base_url = %q
spreadsheet_id = "sheet-1"
sheet_name = "Videos"

[uploader]
year = "2025"
retry_attempts = 1
retry_delay_seconds = 0

[logging]
format = "json"
level = "error"
`,
		filepath.Join(base, "data"), filepath.Join(base, "logs"),
		hostURL, hostURL, sheetsURL)

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	host := &fakeHostServer{}
	server := httptest.NewServer(host.handler())
	defer server.Close()

	configPath := writeCLIConfig(t, server.URL, server.URL)
	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "account-key") {
		t.Errorf("api key should be masked:\n%s", out)
	}
	requireContains(t, out, "acco")
}

func TestLibrariesRefreshCommand(t *testing.T) {
	host := &fakeHostServer{}
	server := httptest.NewServer(host.handler())
	defer server.Close()

	configPath := writeCLIConfig(t, server.URL, server.URL)
	out, _, err := runCLI(t, configPath, "libraries", "refresh")
	if err != nil {
		t.Fatalf("libraries refresh: %v", err)
	}
	requireContains(t, out, "M1-SCI-P0001-Ahmed")
	requireContains(t, out, "Cached 1 libraries")
}

func TestPreviewCommandClassifies(t *testing.T) {
	host := &fakeHostServer{}
	server := httptest.NewServer(host.handler())
	defer server.Close()

	configPath := writeCLIConfig(t, server.URL, server.URL)
	out, _, err := runCLI(t, configPath, "preview",
		"/in/M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4",
		"/in/scribbles.mp4",
	)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "M1-SCI-P0001-Ahmed")
	requireContains(t, out, "Needs manual selection")
	requireContains(t, out, "1 ready to upload, 1 need manual selection")
}

func TestUploadCommandEndToEnd(t *testing.T) {
	host := &fakeHostServer{}
	server := httptest.NewServer(host.handler())
	defer server.Close()

	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4")
	if err := os.WriteFile(source, []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}

	configPath := writeCLIConfig(t, server.URL, server.URL)
	out, _, err := runCLI(t, configPath, "upload", source)
	if err != nil {
		t.Fatalf("upload: %v\n%s", err, out)
	}
	requireContains(t, out, "1 uploaded")

	host.mu.Lock()
	defer host.mu.Unlock()
	if host.uploads != 1 {
		t.Errorf("host received %d uploads, want 1", host.uploads)
	}
	if len(host.collections) != 1 || host.collections[0]["name"] != "T1-2025" {
		t.Errorf("unexpected collections: %v", host.collections)
	}
}

func TestEmbedsPushCommand(t *testing.T) {
	var batchCalls int
	sheetsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"values": [][]string{{"lesson-one"}}})
		case r.Method == http.MethodPost:
			batchCalls++
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer sheetsServer.Close()

	host := &fakeHostServer{}
	hostServer := httptest.NewServer(host.handler())
	defer hostServer.Close()

	docPath := filepath.Join(t.TempDir(), "embeds.json")
	doc := `{"videos":[{"name":"lesson-one.mp4","embed_code":"<iframe/>"},{"name":"missing.mp4","embed_code":"<iframe/>"}]}`
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	configPath := writeCLIConfig(t, hostServer.URL, sheetsServer.URL)
	out, _, err := runCLI(t, configPath, "embeds", "push", "--from", docPath)
	if err != nil {
		t.Fatalf("embeds push: %v", err)
	}
	requireContains(t, out, "1 embeds written")
	requireContains(t, out, "no sheet row for missing.mp4")
	if batchCalls != 1 {
		t.Errorf("batchUpdate called %d times, want 1", batchCalls)
	}
}
