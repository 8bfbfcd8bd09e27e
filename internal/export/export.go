// Package export renders a summary as a downloadable file.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	FormatTXT = "txt"
	FormatPDF = "pdf"

	pdfTitle = "Research Paper Summary"
)

var ErrUnknownFormat = fmt.Errorf("unknown export format, expected %q or %q", FormatTXT, FormatPDF)

// FileName returns the default download name for format.
func FileName(format string) string {
	return "summary." + format
}

func ContentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// ParseFormat accepts "txt" or "pdf" in any case; empty means txt.
func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", FormatTXT:
		return FormatTXT, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w (format = %q)", ErrUnknownFormat, raw)
	}
}

func Write(w io.Writer, format, summary string) error {
	switch format {
	case FormatTXT:
		return TXT(w, summary)
	case FormatPDF:
		return PDF(w, summary)
	default:
		return fmt.Errorf("%w (format = %q)", ErrUnknownFormat, format)
	}
}

func TXT(w io.Writer, summary string) error {
	if _, err := io.WriteString(w, summary); err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}

// PDF lays out an A4 page: 16pt title at (20, 20), 12pt body wrapped at
// 170mm from (20, 30).
func PDF(w io.Writer, summary string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetTitle(pdfTitle, true)
	doc.SetLeftMargin(20)
	doc.AddPage()

	doc.SetFont("Helvetica", "", 16)
	doc.Text(20, 20, tr(pdfTitle))

	doc.SetFont("Helvetica", "", 12)
	doc.SetXY(20, 30)
	doc.MultiCell(170, 6, tr(summary), "", "L", false)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}

	return nil
}
