package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/saulrichardson/allstate-weekly-lists/internal/config"
	"github.com/saulrichardson/allstate-weekly-lists/internal/logbook"
	"github.com/saulrichardson/allstate-weekly-lists/internal/runner"
	"github.com/saulrichardson/allstate-weekly-lists/internal/tui"
)

func main() {
	baseDir := flag.String("base", ".", "project directory holding config/ and data/")
	outDir := flag.String("out", "", "output directory (defaults to a dated folder under the output root)")
	pdf := flag.Bool("pdf", false, "also produce a PDF per workbook")
	review := flag.Bool("review", false, "show the interactive review screen before exporting")
	check := flag.Bool("check", false, "validate configuration and exit")
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	base, err := filepath.Abs(*baseDir)
	if err != nil {
		die("resolve base dir: %v", err)
	}
	cfg, err := config.Load(base, *outDir)
	if err != nil {
		die("load config: %v", err)
	}
	if *pdf {
		cfg.Settings.PDF = true
	}
	if err := cfg.EnsureLayout(); err != nil {
		die("prepare layout: %v", err)
	}

	level := logbook.ParseLevel(cfg.Settings.LogLevel)
	if env := strings.TrimSpace(os.Getenv("LOG_LEVEL")); env != "" {
		level = logbook.ParseLevel(env)
	}
	book, err := logbook.New(cfg.LogPath(), logbook.WithEcho(os.Stderr, level))
	if err != nil {
		die("open journal: %v", err)
	}

	opts := []runner.Option{runner.WithLogbook(book)}
	if *review {
		opts = append(opts, runner.WithReview(tui.Review))
	}
	pipeline := runner.New(cfg, opts...)

	if *check {
		findings := pipeline.Check()
		if len(findings) == 0 {
			fmt.Println("configuration ok")
			return
		}
		for _, finding := range findings {
			fmt.Fprintf(os.Stderr, "problem: %v\n", finding)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, runner.ErrAborted) {
			fmt.Println("aborted; nothing was written")
			return
		}
		die("run: %v", err)
	}
	printSummary(summary)
}

func printSummary(summary *runner.Summary) {
	fmt.Printf("assigned %d of %d record(s); %d held back\n", summary.Assigned, summary.Records, summary.Unassigned)
	for _, tally := range summary.Tallies {
		fmt.Printf("  %s: %d task(s), $%s premium\n", tally.Name, tally.Total, tally.Premium.StringFixed(2))
	}
	fmt.Printf("wrote %d file(s) to %s\n", len(summary.Outputs), summary.OutputDir)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
