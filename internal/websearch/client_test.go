package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", log.NewNop())
}

func TestSearch_JSON(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery, gotFormat string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		fmt.Fprint(w, `{"results":[
			{"title":"Go 1.25 released","url":"https://go.dev/blog","content":"The release notes."},
			{"title":"Second","url":"https://b.example","content":"b"},
			{"title":"Third","url":"https://c.example","content":"c"},
			{"title":"Fourth, dropped","url":"https://d.example","content":"d"}
		]}`)
	})

	results, err := client.Search(context.Background(), "go release")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
	if gotQuery != "go release" {
		t.Errorf("query param = %q, want %q", gotQuery, "go release")
	}
	if gotFormat != "json" {
		t.Errorf("format param = %q, want json", gotFormat)
	}

	if len(results) != MaxResults {
		t.Fatalf("result count = %d, want capped at %d", len(results), MaxResults)
	}
	want := Result{Title: "Go 1.25 released", URL: "https://go.dev/blog", Snippet: "The release notes."}
	if results[0] != want {
		t.Errorf("results[0] = %+v, want %+v", results[0], want)
	}
}

func TestSearch_HTMLFallbackOn403(t *testing.T) {
	t.Parallel()

	const page = `<html><body>
<article class="result">
  <h3><a href="https://go.dev/doc">Go Documentation</a></h3>
  <p class="content">Official Go documentation.</p>
</article>
<article class="result">
  <h3><a href="https://pkg.go.dev">Package index</a></h3>
  <p class="content">Module docs.</p>
</article>
</body></html>`

	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		calls = append(calls, format)
		if format == "json" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, page)
	})

	results, err := client.Search(context.Background(), "golang docs")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(calls) != 2 || calls[0] != "json" || calls[1] != "" {
		t.Errorf("request sequence = %v, want [json, html]", calls)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	want := Result{Title: "Go Documentation", URL: "https://go.dev/doc", Snippet: "Official Go documentation."}
	if results[0] != want {
		t.Errorf("results[0] = %+v, want %+v", results[0], want)
	}
}

func TestSearch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			wantErr: ErrProvider,
		},
		{
			name:    "rate limited by provider",
			status:  http.StatusTooManyRequests,
			wantErr: ErrProvider,
		},
		{
			name:    "malformed payload",
			status:  http.StatusOK,
			body:    `{"results": "not a list"`,
			wantErr: ErrProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			if _, err := client.Search(context.Background(), "q"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearch_MissingCredential(t *testing.T) {
	t.Parallel()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		requests++
	}))
	t.Cleanup(srv.Close)

	for _, key := range []string{"", PlaceholderCredential} {
		client := NewClient(srv.URL, key, log.NewNop())
		if _, err := client.Search(context.Background(), "q"); !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Search() with key %q error = %v, want ErrMissingCredential", key, err)
		}
	}
	if requests != 0 {
		t.Errorf("provider was contacted %d times without a credential", requests)
	}
}

func TestSearch_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, "test-key", log.NewNop())
	if _, err := client.Search(context.Background(), "q"); !errors.Is(err, ErrNetwork) {
		t.Errorf("Search() error = %v, want ErrNetwork", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Title: "First", URL: "https://a.example", Snippet: "snippet a"},
		{Title: "Second", Snippet: "snippet b"},
		{Title: "Bare"},
	}

	got := Summary(results)
	want := strings.Join([]string{
		"1. First\nsnippet a\nSource: https://a.example",
		"2. Second\nsnippet b",
		"3. Bare",
	}, "\n\n")
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	if Summary(nil) != "" {
		t.Errorf("Summary(nil) = %q, want empty", Summary(nil))
	}
}
