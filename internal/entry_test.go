package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/scribe/internal/ledger"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Source.Path = t.TempDir()
	cfg.Output.Path = filepath.Join(t.TempDir(), "out")
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "scribe.db")
	return cfg
}

func TestConvert_WritesOutputAndLedger(t *testing.T) {
	cfg := testConfig(t)
	src := "---\ntitle: Hello World\ntags: a, b\n---\nSome **bold** text\n"
	if err := os.WriteFile(filepath.Join(cfg.Source.Path, "hello.md"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Convert(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Output.Path, "hello-world.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "+++\ntitle = \"Hello World\"\n") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "Some **bold** text") {
		t.Errorf("body missing from %q", got)
	}

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	row, err := db.GetDocument("hello.md", "zola")
	if err != nil {
		t.Fatalf("ledger row: %v", err)
	}
	if row.Filename != "hello-world.md" {
		t.Errorf("ledger filename = %q, want hello-world.md", row.Filename)
	}
}

func TestConvert_WatchNeedsFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source = SourceConfig{Kind: "feed", URL: "https://blog.test/rss"}
	err := Convert(context.Background(), WithConfig(cfg), WithWatch(true), WithLogOutput(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "watch needs source kind") {
		t.Errorf("err = %v", err)
	}
}

func TestConvert_ConfigRequired(t *testing.T) {
	if err := Convert(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}

func TestPublish_NeedsGhost(t *testing.T) {
	cfg := testConfig(t)
	if err := Publish(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err == nil {
		t.Error("expected error without ghost credentials")
	}
}

func TestHandler_Routes(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Upload.Kind = "local"
	cfg.Upload.Local.Path = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.Upload.Local.Path, "a.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := newDocService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewHandler(cfg, svc))
	defer srv.Close()

	tests := []struct {
		method, path, body string
		want               int
		contains           string
	}{
		{http.MethodGet, "/health/live", "", http.StatusOK, `"ok"`},
		{http.MethodGet, "/health/ready", "", http.StatusOK, `"ok"`},
		{http.MethodPost, "/api/slug", `{"title":"Hello World"}`, http.StatusOK, `"hello-world"`},
		{http.MethodGet, "/api/formats", "", http.StatusOK, `"zola"`},
		{http.MethodGet, "/images/a.png", "", http.StatusOK, "png"},
		{http.MethodGet, "/images/missing.png", "", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d (body %q)", resp.StatusCode, tt.want, body)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body = %q, want it to contain %q", body, tt.contains)
			}
		})
	}
}
