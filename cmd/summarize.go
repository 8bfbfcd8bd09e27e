package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"papersum/internal/config"
	"papersum/internal/domain"
	"papersum/internal/export"
	"papersum/internal/extract"
	"papersum/internal/progress"
	"papersum/internal/summarizer"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func summarizeCmd() *cobra.Command {
	var (
		length  int
		fluency string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a PDF or TXT paper and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			prefs, err := domain.ParsePreferences(strconv.Itoa(length), fluency)
			if err != nil {
				return err
			}

			format := ""
			if out != "" {
				if format, err = formatForPath(out); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			stderr := cmd.ErrOrStderr()
			log := newLogger(stderr, cfg)

			text, err := readPaper(cmd, args[0], cfg)
			if err != nil {
				return err
			}

			p, err := newPipeline(ctx, cfg, nil, log)
			if err != nil {
				return err
			}

			sim := progress.New(
				progress.WithInterval(cfg.ProgressInterval),
				progress.WithOnChange(func(v int) {
					fmt.Fprintf(stderr, "\rGenerating summary... %d%%", v)
				}),
			)

			res, err := p.Summarize(ctx, summarizer.Input{Text: text, Preferences: prefs}, sim)
			fmt.Fprintln(stderr)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Summary)

			if out == "" {
				return nil
			}

			var buf bytes.Buffer
			if err = export.Write(&buf, format, res.Summary); err != nil {
				return err
			}
			if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintf(stderr, "Summary downloaded as %s\n", strings.ToUpper(format))

			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", int(domain.LengthStandard), "summary length in words: 300|500|700")
	cmd.Flags().StringVar(&fluency, "fluency", string(domain.FluencyStandard), "writing style: basic|standard|professional")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also export the summary to a .txt or .pdf file")

	return cmd
}

func readPaper(cmd *cobra.Command, path string, cfg config.Config) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open paper: %w", err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return "", fmt.Errorf("stat paper: %w", err)
	}

	f := extract.File{
		Name:     filepath.Base(path),
		MIMEType: extract.MediaTypeForName(path),
		Size:     info.Size(),
		Body:     io.NewSectionReader(fh, 0, info.Size()),
	}

	if err = extract.Validate(f, cfg.MaxUploadBytes); err != nil {
		return "", err
	}

	res, err := extract.New(cfg.PDFDelay, nil).Extract(cmd.Context(), f)
	if err != nil {
		return "", err
	}

	return res.Text, nil
}

// formatForPath picks the export format from the file extension.
func formatForPath(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w (path = %q)", export.ErrUnknownFormat, path)
	}

	return export.ParseFormat(ext)
}
