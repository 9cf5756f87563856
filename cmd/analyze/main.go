package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/kirillkom/legal-violation-analyzer/internal/bootstrap"
	"github.com/kirillkom/legal-violation-analyzer/internal/config"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/export"
	"github.com/kirillkom/legal-violation-analyzer/internal/observability/logging"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "Also write the violations to this XLSX workbook")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-xlsx out.xlsx] <file>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(flag.Args(), *xlsxPath); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(paths []string, xlsxPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "analyze", level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	docs, err := readDocuments(paths)
	if err != nil {
		return err
	}

	spinner := getSpinner("analyzing documents")
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = spinner.Add(1)
			}
		}
	}()
	result, err := app.Analyzer.Analyze(ctx, domain.AnalysisRequest{ID: uuid.NewString(), Documents: docs})
	close(done)
	_ = spinner.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("%s (%w)", domain.ClientMessage(err), err)
	}

	printViolations(result.Violations)

	if xlsxPath != "" {
		if err := writeWorkbook(xlsxPath, paths, result.Violations); err != nil {
			return err
		}
		color.Green("wrote %s", xlsxPath)
	}
	return nil
}

func readDocuments(paths []string) ([]domain.UploadedDocument, error) {
	if len(paths) == 0 {
		return nil, domain.ErrNoFiles
	}
	bar := getProgressBar(len(paths), "reading files")
	docs := make([]domain.UploadedDocument, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, domain.UploadedDocument{
			Filename: filepath.Base(p),
			Content:  content,
		})
		_ = bar.Add(1)
	}
	return docs, nil
}

func printViolations(violations []domain.Violation) {
	if len(violations) == 0 {
		color.Green("No violations found.")
		return
	}
	heading := color.New(color.FgYellow, color.Bold)
	for i, v := range violations {
		heading.Printf("%d. %s\n", i+1, orDash(v.ClauseText()))
		if v.Description != nil {
			fmt.Printf("   %s\n", v.DescriptionText())
		}
	}
}

func writeWorkbook(path string, sources []string, violations []domain.Violation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	source := fmt.Sprintf("%d files", len(sources))
	if len(sources) == 1 {
		source = filepath.Base(sources[0])
	}
	if err := export.ViolationsXLSX(f, source, violations); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
