// Package extract turns attached files into plain text suitable for prompt
// context. Images go through tesseract OCR, PDFs through pdftotext, HTML
// through a readability pass, and plain text is validated as UTF-8.
//
// All extraction goes through the Extractor interface so the orchestrator
// can be tested without the external tools installed.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// Extraction errors. All of them match ErrExtraction with errors.Is; the
// more specific sentinels identify the failure class.
var (
	ErrExtraction      = errors.New("file extraction failed")
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrExtraction)
	ErrDecode          = fmt.Errorf("%w: undecodable content", ErrExtraction)
	ErrTimeout         = fmt.Errorf("%w: timed out", ErrExtraction)
)

// PageSeparator joins the pages of a multi-page document in the extracted
// text, with the 1-based page number substituted in.
const PageSeparator = "--- Page %d ---"

// File is an attachment as received from the user, before extraction.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extractor converts one file to plain text.
type Extractor interface {
	Extract(ctx context.Context, f File) (string, error)
}

// ToolExtractor extracts text using external command-line tools (tesseract,
// pdftotext) plus in-process handling for HTML and plain text.
type ToolExtractor struct {
	timeout time.Duration
	logger  log.Logger
}

// NewToolExtractor creates an extractor. Each Extract call is bounded by
// timeout; zero means no per-call bound beyond the caller's context.
func NewToolExtractor(timeout time.Duration, logger log.Logger) *ToolExtractor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ToolExtractor{timeout: timeout, logger: logger}
}

// Extract dispatches on the file's media type. The result is trimmed; an
// empty result is not an error (a blank page OCRs to nothing).
func (e *ToolExtractor) Extract(ctx context.Context, f File) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	mediaType := f.ContentType
	if parsed, _, err := mime.ParseMediaType(f.ContentType); err == nil {
		mediaType = parsed
	}

	start := time.Now()
	text, err := e.extractByType(ctx, mediaType, f)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s", ErrTimeout, f.Name)
		}
		return "", err
	}

	e.logger.Debug("extracted file",
		"name", f.Name,
		"type", mediaType,
		"chars", len(text),
		"duration", time.Since(start))
	return strings.TrimSpace(text), nil
}

func (e *ToolExtractor) extractByType(ctx context.Context, mediaType string, f File) (string, error) {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return e.ocrImage(ctx, f)
	case mediaType == "application/pdf":
		return e.pdfText(ctx, f)
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return htmlText(f)
	case strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/json" ||
		mediaType == "application/xml" ||
		mediaType == "" && utf8.Valid(f.Data):
		return plainText(f)
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, f.Name, f.ContentType)
	}
}

// ocrImage runs tesseract reading the image from stdin and writing the
// recognized text to stdout.
func (e *ToolExtractor) ocrImage(ctx context.Context, f File) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(f.Data)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e.logger.Warn("tesseract failed", "name", f.Name, "error", err, "stderr", stderr.String())
		return "", fmt.Errorf("%w: ocr: %w", ErrExtraction, err)
	}
	return out.String(), nil
}

// pdfText runs pdftotext on a temp copy of the document and rewrites the
// form-feed page breaks it emits into numbered page separators.
func (e *ToolExtractor) pdfText(ctx context.Context, f File) (string, error) {
	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return "", fmt.Errorf("%w: temp file: %w", ErrExtraction, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: temp file: %w", ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: temp file: %w", ErrExtraction, err)
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", tmpName, "-")
	output, err := cmd.CombinedOutput()
	if err != nil {
		e.logger.Warn("pdftotext failed", "name", f.Name, "error", err, "output", string(output))
		return "", fmt.Errorf("%w: pdf: %w", ErrExtraction, err)
	}
	return joinPages(string(output)), nil
}

// joinPages converts pdftotext's form-feed separated output into pages
// labeled with PageSeparator headers.
func joinPages(raw string) string {
	pages := strings.Split(strings.TrimRight(raw, "\f\n"), "\f")
	if len(pages) == 1 {
		return pages[0]
	}

	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, PageSeparator, i+1)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(page))
	}
	return b.String()
}

// htmlText strips markup and boilerplate, keeping the readable article
// content.
func htmlText(f File) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(f.Data), &url.URL{})
	if err != nil {
		return "", fmt.Errorf("%w: html: %w", ErrDecode, err)
	}
	return article.TextContent, nil
}

func plainText(f File) (string, error) {
	if !utf8.Valid(f.Data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, f.Name)
	}
	return string(f.Data), nil
}
