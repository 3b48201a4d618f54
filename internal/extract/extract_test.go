package extract

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

func TestExtract_PlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		file        File
		want        string
		wantErr     error
		wantMatches []error
	}{
		{
			name: "text file",
			file: File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello world\n")},
			want: "hello world",
		},
		{
			name: "content type with charset parameter",
			file: File{Name: "notes.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("paramized")},
			want: "paramized",
		},
		{
			name: "json file",
			file: File{Name: "data.json", ContentType: "application/json", Data: []byte(`{"k":1}`)},
			want: `{"k":1}`,
		},
		{
			name: "missing content type with utf8 payload",
			file: File{Name: "README", ContentType: "", Data: []byte("no type, still text")},
			want: "no type, still text",
		},
		{
			name:        "invalid utf8 text",
			file:        File{Name: "broken.txt", ContentType: "text/plain", Data: []byte{0xff, 0xfe, 0xfd}},
			wantErr:     ErrDecode,
			wantMatches: []error{ErrExtraction},
		},
		{
			name:        "unsupported binary",
			file:        File{Name: "app.bin", ContentType: "application/octet-stream", Data: []byte{0x00, 0x01}},
			wantErr:     ErrUnsupportedType,
			wantMatches: []error{ErrExtraction},
		},
	}

	ex := NewToolExtractor(0, log.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ex.Extract(context.Background(), tt.file)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
				}
				for _, m := range tt.wantMatches {
					if !errors.Is(err, m) {
						t.Errorf("Extract() error %v does not match %v", err, m)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_HTML(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html><html><head><title>Quarterly Report</title></head>
<body><nav>Home | About</nav>
<article><h1>Quarterly Report</h1>
<p>Revenue grew twelve percent compared to the previous quarter.</p>
<p>Operating costs stayed flat.</p></article>
<footer>copyright</footer></body></html>`

	ex := NewToolExtractor(0, log.NewNop())
	got, err := ex.Extract(context.Background(), File{
		Name:        "report.html",
		ContentType: "text/html",
		Data:        []byte(html),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got, "Revenue grew twelve percent") {
		t.Errorf("Extract() = %q, want article body text", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("Extract() left markup in output: %q", got)
	}
}

func TestJoinPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "single page passes through",
			raw:  "only page\n",
			want: "only page",
		},
		{
			name: "two pages get numbered headers",
			raw:  "first\f second \fthird\f",
			want: "--- Page 1 ---\nfirst\n\n--- Page 2 ---\nsecond\n\n--- Page 3 ---\nthird",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := joinPages(tt.raw); got != tt.want {
				t.Errorf("joinPages() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_Timeout(t *testing.T) {
	t.Parallel()

	ex := NewToolExtractor(time.Nanosecond, log.NewNop())
	requireTool(t, "pdftotext")

	_, err := ex.Extract(context.Background(), File{
		Name:        "slow.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Extract() error = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("Extract() timeout error does not match ErrExtraction")
	}
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed", name)
	}
}
