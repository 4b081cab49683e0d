package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteIndented(t *testing.T) {
	var buf bytes.Buffer
	if err := writeIndented(&buf, json.RawMessage(`{"a":[1,2]}`)); err != nil {
		t.Fatalf("writeIndented: %v", err)
	}
	want := "{\n  \"a\": [\n    1,\n    2\n  ]\n}\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestFetchRequiresEndpointID(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"fetch"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestPollRejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"poll", "extra"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestFetchKeepsLogsOffStdout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	catalog := fmt.Sprintf("endpoints:\n  - id: ping\n    scheme: http\n    host: %s\n    path: /ping\n", u.Host)
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	t.Setenv("ENDPOINTS_FILE", path)
	t.Setenv("LOG_LEVEL", "debug")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"fetch", "ping"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got, want := stdout.String(), "{\n  \"ok\": true\n}\n"; got != want {
		t.Fatalf("stdout = %q, want only the payload %q", got, want)
	}
	if !strings.Contains(stderr.String(), "endpoint fetched") {
		t.Fatalf("expected debug logs on stderr, got %q", stderr.String())
	}
}
