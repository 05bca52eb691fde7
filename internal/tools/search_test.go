package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func searxServer(t *testing.T, results []map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("format = %q, want json", r.URL.Query().Get("format"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchToolCall(t *testing.T) {
	srv := searxServer(t, []map[string]string{
		{"title": "Cats land on feet", "url": "https://example.com/cats", "content": "A study of feline physics."},
		{"title": "More cats", "url": "https://example.com/more", "content": "Even more."},
	})

	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}

	out, err := tool.Call(context.Background(), json.RawMessage(`{"query":"cats"}`))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(out, "1. Cats land on feet") {
		t.Errorf("output missing first result:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/more") {
		t.Errorf("output missing second result URL:\n%s", out)
	}
}

func TestSearchToolCapsResults(t *testing.T) {
	var many []map[string]string
	for i := 0; i < 12; i++ {
		many = append(many, map[string]string{"title": "t", "url": "https://example.com", "content": "c"})
	}
	srv := searxServer(t, many)

	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}
	out, err := tool.Call(context.Background(), json.RawMessage(`{"query":"q"}`))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := strings.Count(out, "https://example.com"); got != maxSearchResults {
		t.Errorf("returned %d results, want %d", got, maxSearchResults)
	}
}

func TestSearchToolNoResults(t *testing.T) {
	srv := searxServer(t, nil)

	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}
	if _, err := tool.Call(context.Background(), json.RawMessage(`{"query":"nothing"}`)); !errors.Is(err, ErrNoResults) {
		t.Errorf("error = %v, want ErrNoResults", err)
	}
}

func TestSearchToolBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}
	if _, err := tool.Call(context.Background(), json.RawMessage(`{"query":"q"}`)); err == nil {
		t.Error("expected error from failing backend")
	}
}

func TestSearchToolArgValidation(t *testing.T) {
	srv := searxServer(t, nil)
	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}

	if _, err := tool.Call(context.Background(), json.RawMessage(`{"query":"  "}`)); err == nil {
		t.Error("blank query should be rejected")
	}
	if _, err := tool.Call(context.Background(), json.RawMessage(`{not json`)); err == nil {
		t.Error("malformed arguments should be rejected")
	}
}

func TestNewSearchToolRejectsBadURL(t *testing.T) {
	for _, bad := range []string{"", "not a url", "ftp://example.com"} {
		if _, err := NewSearchTool(bad, nil); err == nil {
			t.Errorf("NewSearchTool(%q) should fail", bad)
		}
	}
}

func TestSearchToolSchema(t *testing.T) {
	srv := searxServer(t, nil)
	tool, err := NewSearchTool(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewSearchTool: %v", err)
	}
	if tool.Name() != "web_search" {
		t.Errorf("Name = %q", tool.Name())
	}
	schema := tool.Schema()
	if schema.Type != "object" || schema.Properties["query"] == nil {
		t.Errorf("schema should declare a query property: %+v", schema)
	}
}
