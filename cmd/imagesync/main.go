package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	imagesync "github.com/goliatone/go-imagesync"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("imagesync: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("imagesync", flag.ExitOnError)
	inputDir := fs.String("input-dir", ".", "Path to the Markdown corpus root")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied when discovering Markdown files")
	recursive := fs.Bool("recursive", true, "Traverse sub-directories under the corpus root")
	assetsDir := fs.String("assets-dir", "assets", "Directory where downloaded images are written")
	destDir := fs.String("dest-dir", "../assets", "Directory prefix substituted into rewritten Markdown")
	filters := fs.String("filters", "", "Comma separated URL substrings; only matching URLs are processed")
	concurrency := fs.Int("concurrency", 4, "Worker pool size for scanning and planning")
	manifest := fs.String("manifest", "", "Optional sqlite manifest path persisting filename assignments")
	dryRun := fs.Bool("dry-run", false, "Plan the run without downloading or modifying anything")
	timeout := fs.Duration("fetch-timeout", 30*time.Second, "Per-request download timeout")
	retries := fs.Int("fetch-retries", 2, "Additional download attempts after a failure")
	logProvider := fs.String("log-provider", "console", "Logging provider (console or gologger)")
	logLevel := fs.String("log-level", "info", "Minimum log severity")
	logFormat := fs.String("log-format", "", "Log output format for the gologger provider (json, console, pretty)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := imagesync.DefaultConfig()
	cfg.InputDir = *inputDir
	cfg.Pattern = *pattern
	cfg.Recursive = *recursive
	cfg.AssetsDir = *assetsDir
	cfg.MarkdownDestDir = *destDir
	cfg.URLFilters = splitFilters(*filters)
	cfg.Concurrency = *concurrency
	cfg.ManifestPath = *manifest
	cfg.Fetch.Timeout = *timeout
	cfg.Fetch.Retries = *retries
	cfg.Logging.Provider = *logProvider
	cfg.Logging.Level = *logLevel
	cfg.Logging.Format = *logFormat

	service, err := imagesync.New(cfg)
	if err != nil {
		return fmt.Errorf("configure service: %w", err)
	}

	ctx := context.Background()

	if *dryRun {
		summary, err := service.Plan(ctx)
		if err != nil {
			return fmt.Errorf("plan corpus: %w", err)
		}
		fmt.Fprint(os.Stdout, imagesync.RenderPlan(summary))
		return nil
	}

	summary, err := service.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync corpus: %w", err)
	}
	fmt.Fprint(os.Stdout, imagesync.RenderExecution(summary))
	return nil
}

func splitFilters(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
