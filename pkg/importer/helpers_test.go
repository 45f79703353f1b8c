package importer

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func shortRetries(t *testing.T) {
	t.Helper()
	old := retryUnit
	retryUnit = time.Millisecond
	t.Cleanup(func() { retryUnit = old })
}

func TestDownloadFile(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "test.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	shortRetries(t)
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	shortRetries(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fail.txt")
	err := downloadFile(context.Background(), ts.URL, dest)
	if err == nil {
		t.Error("expected error after all retries exhausted")
	}
}

func TestDownloadFile_Cancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := downloadFile(ctx, ts.URL, filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		io.WriteString(w, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	f.Close()
}

func TestUnzipFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "terms.zip")
	writeZip(t, src, map[string]string{"nested/terms.csv": "Cursor;Curser\n"})

	out := filepath.Join(dir, "out")
	os.MkdirAll(out, 0o755)
	paths, err := unzipFile(src, out)
	if err != nil {
		t.Fatalf("unzipFile: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "terms.csv" {
		t.Fatalf("paths = %v", paths)
	}
	data, _ := os.ReadFile(paths[0])
	if string(data) != "Cursor;Curser\n" {
		t.Errorf("content = %q", data)
	}
}

func TestDecodeReader(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		input   string
		want    string
	}{
		{"utf-8 passthrough", "", "Café", "Café"},
		{"explicit utf-8", "UTF-8", "Café", "Café"},
		{"latin1", "latin1", "Caf\xe9", "Café"},
		{"windows-1252", "windows-1252", "\x93Cursor\x94", "“Cursor”"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeReader(strings.NewReader(tt.input), tt.charset)
			if err != nil {
				t.Fatalf("decodeReader: %v", err)
			}
			got, _ := io.ReadAll(r)
			if string(got) != tt.want {
				t.Errorf("decoded = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := decodeReader(strings.NewReader(""), "klingon"); err == nil {
		t.Error("expected error for unknown charset")
	}
}
