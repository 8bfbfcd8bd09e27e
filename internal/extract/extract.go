// Package extract turns an uploaded paper into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	rpdf "rsc.io/pdf"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"

	DefaultMaxSize  int64 = 10 * 1024 * 1024
	DefaultPDFDelay       = time.Second

	// PDFPlaceholder stands in for real PDF text extraction.
	PDFPlaceholder = "This is the extracted text from the PDF file. " +
		"In a real implementation, we would use a PDF parsing library to extract the actual text content."
)

var (
	ErrUnsupportedType = errors.New("please upload a PDF or TXT file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrExtraction      = errors.New("failed to process file")
)

// File is an uploaded document. Body must cover Size bytes.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Body     io.ReaderAt
}

type Result struct {
	Text      string
	MediaType string
	Pages     int
}

// MediaType returns the media type of f without parameters.
func (f File) MediaType() string {
	mediaType, _, err := mime.ParseMediaType(f.MIMEType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(f.MIMEType))
	}

	return mediaType
}

// MediaTypeForName guesses the media type from the file extension.
func MediaTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaTypePDF
	case ".txt":
		return MediaTypeText
	default:
		return mime.TypeByExtension(filepath.Ext(name))
	}
}

// Validate rejects files the extractor will not read. A maxSize of zero
// or less means DefaultMaxSize.
func Validate(f File, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	switch f.MediaType() {
	case MediaTypePDF, MediaTypeText:
	default:
		return fmt.Errorf("%w (type = %q)", ErrUnsupportedType, f.MIMEType)
	}

	if f.Size > maxSize {
		return fmt.Errorf("%w (size = %d, limit = %d)", ErrFileTooLarge, f.Size, maxSize)
	}

	return nil
}

type Extractor struct {
	pdfDelay time.Duration
	log      *slog.Logger
}

// New returns an extractor; pdfDelay simulates PDF parsing time.
func New(pdfDelay time.Duration, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}

	return &Extractor{
		pdfDelay: max(pdfDelay, 0),
		log:      log,
	}
}

// Extract returns ErrExtraction (wrapped) when the file cannot be read.
func (e *Extractor) Extract(ctx context.Context, f File) (Result, error) {
	if f.Body == nil {
		return Result{}, fmt.Errorf("%w: empty body", ErrExtraction)
	}

	switch mediaType := f.MediaType(); mediaType {
	case MediaTypePDF:
		return e.extractPDF(ctx, f)
	case MediaTypeText:
		return extractText(f)
	default:
		return Result{}, fmt.Errorf("%w (type = %q)", ErrUnsupportedType, f.MIMEType)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, f File) (result Result, err error) {
	defer func() {
		// rsc.io/pdf panics on some malformed documents.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed PDF: %v", ErrExtraction, r)
		}
	}()

	doc, err := rpdf.NewReader(f.Body, f.Size)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open PDF: %w", ErrExtraction, err)
	}

	pages := doc.NumPage()
	if pages <= 0 {
		return Result{}, fmt.Errorf("%w: PDF has no pages", ErrExtraction)
	}

	e.log.DebugContext(ctx, "PDF is opened",
		"fileName", f.Name,
		"pages", pages,
		"sizeBytes", f.Size)

	if e.pdfDelay > 0 {
		t := time.NewTimer(e.pdfDelay)
		defer t.Stop()

		select {
		case <-t.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	return Result{
		Text:      PDFPlaceholder,
		MediaType: MediaTypePDF,
		Pages:     pages,
	}, nil
}

func extractText(f File) (Result, error) {
	raw, err := io.ReadAll(io.NewSectionReader(f.Body, 0, f.Size))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read text: %w", ErrExtraction, err)
	}

	if !utf8.Valid(raw) {
		return Result{}, fmt.Errorf("%w: text is not valid UTF-8", ErrExtraction)
	}

	return Result{
		Text:      string(raw),
		MediaType: MediaTypeText,
	}, nil
}
