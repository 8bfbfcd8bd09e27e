package extract_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"papersum/internal/export"
	"papersum/internal/extract"
	"strings"
	"testing"
	"time"
)

func fileOf(name, mimeType string, body []byte) extract.File {
	return extract.File{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	}
}

func renderedPDF(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := export.PDF(&buf, "Some paper body"); err != nil {
		t.Fatalf("render PDF: %v", err)
	}
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    extract.File
		wantErr error
	}{
		{"pdf", extract.File{MIMEType: "application/pdf", Size: 10}, nil},
		{"text with charset", extract.File{MIMEType: "text/plain; charset=utf-8", Size: 10}, nil},
		{"exactly at limit", extract.File{MIMEType: "text/plain", Size: extract.DefaultMaxSize}, nil},
		{"docx", extract.File{MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 10}, extract.ErrUnsupportedType},
		{"empty type", extract.File{Size: 10}, extract.ErrUnsupportedType},
		{"too large", extract.File{MIMEType: "application/pdf", Size: extract.DefaultMaxSize + 1}, extract.ErrFileTooLarge},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := extract.Validate(test.file, 0)
			if test.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	e := extract.New(0, slog.Default())

	res, err := e.Extract(context.Background(), fileOf("paper.txt", "text/plain", []byte("Paper ABC content...")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Paper ABC content..." || res.MediaType != extract.MediaTypeText {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractTextRejectsBinary(t *testing.T) {
	e := extract.New(0, slog.Default())

	_, err := e.Extract(context.Background(), fileOf("paper.txt", "text/plain", []byte{0xff, 0xfe, 0xfd}))
	if !errors.Is(err, extract.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractPDFReturnsPlaceholder(t *testing.T) {
	e := extract.New(0, slog.Default())

	res, err := e.Extract(context.Background(), fileOf("paper.pdf", "application/pdf", renderedPDF(t)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != extract.PDFPlaceholder {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Pages != 1 {
		t.Fatalf("expected one page, got %d", res.Pages)
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	e := extract.New(0, slog.Default())

	_, err := e.Extract(context.Background(), fileOf("paper.pdf", "application/pdf", []byte("definitely not a pdf")))
	if !errors.Is(err, extract.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractPDFHonoursCancellation(t *testing.T) {
	e := extract.New(time.Hour, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, fileOf("paper.pdf", "application/pdf", renderedPDF(t)))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMediaTypeForName(t *testing.T) {
	if got := extract.MediaTypeForName("Paper.PDF"); got != extract.MediaTypePDF {
		t.Fatalf("unexpected media type for PDF: %q", got)
	}
	if got := extract.MediaTypeForName("notes.txt"); got != extract.MediaTypeText {
		t.Fatalf("unexpected media type for TXT: %q", got)
	}
	if got := extract.MediaTypeForName("archive.zip"); strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected media type for zip: %q", got)
	}
}
