package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"papersum/internal/config"
	"papersum/internal/export"
	"papersum/internal/summarizer"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"summary.txt", export.FormatTXT, false},
		{"out/Summary.PDF", export.FormatPDF, false},
		{"summary", "", true},
		{"summary.docx", "", true},
	}

	for _, test := range tests {
		got, err := formatForPath(test.path)
		if test.wantErr {
			if !errors.Is(err, export.ErrUnknownFormat) {
				t.Fatalf("expected ErrUnknownFormat for %q, got %v", test.path, err)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Fatalf("unexpected format for %q: %q %v", test.path, got, err)
		}
	}
}

func TestNewPrimaryDisabled(t *testing.T) {
	cfg := config.Config{LLMProvider: config.ProviderNone, LogLevel: "info"}
	log := newLogger(&bytes.Buffer{}, cfg)

	if s := newPrimary(context.Background(), cfg, log); s != nil {
		t.Fatalf("expected no primary summarizer, got %T", s)
	}
}

func TestNewPrimaryGeminiWithoutKey(t *testing.T) {
	cfg := config.Config{LLMProvider: config.ProviderGemini, LogLevel: "info"}
	log := newLogger(&bytes.Buffer{}, cfg)

	if s := newPrimary(context.Background(), cfg, log); s != nil {
		t.Fatalf("expected gemini without key to fall back, got %T", s)
	}
}

func TestSummarizeCommandWithoutProvider(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("MOCK_DELAY", "0s")
	t.Setenv("PROGRESS_INTERVAL", "1ms")

	paper := filepath.Join(dir, "paper.txt")
	if err := os.WriteFile(paper, []byte("Paper ABC content..."), 0o600); err != nil {
		t.Fatalf("write paper: %v", err)
	}
	out := filepath.Join(dir, "summary.txt")

	cmd := summarizeCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{paper, "--length", "300", "--fluency", "basic", "--out", out})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if strings.TrimSpace(stdout.String()) != summarizer.MockSummary {
		t.Fatalf("expected mock summary on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "100%") {
		t.Fatalf("expected settled progress on stderr, got %q", stderr.String())
	}

	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(written) != summarizer.MockSummary {
		t.Fatalf("unexpected exported summary")
	}
}
