// Package main is the interleave CLI entry point.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/cli"
	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/export"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/server"
	"github.com/hyperjump/interleave/internal/session"
	"github.com/hyperjump/interleave/internal/storage"
	"github.com/hyperjump/interleave/internal/watcher"
	"github.com/hyperjump/interleave/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/interleave/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory is preferred if it exists, so that running from a project dir uses
// that project's books. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "chapters":
		runChapters()
	case "align":
		runAlign()
	case "fixup":
		runFixup()
	case "merge":
		runMerge()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "clear-cache":
		runClearCache()
	case "version", "--version", "-v":
		fmt.Printf("interleave version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every book command takes.
func commonFlags(fs *flag.FlagSet) (configPath *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, debug
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads the config, creates the logger and initializes the components.
func setup(configPath string, debug, writer bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))
	components, err := initializeComponents(cfg, logger, writer)
	if err != nil {
		_ = logger.Sync()
		fatalf("Failed to initialize: %v", err)
	}
	return cfg, logger, components
}

// parsePair reads a chapter pair from args: either one cursor position or explicit
// source and destination chapter indices.
func parsePair(args []string, cur *session.Cursor) (models.ChapterPair, error) {
	switch len(args) {
	case 1:
		k, err := strconv.Atoi(args[0])
		if err != nil {
			return models.ChapterPair{}, fmt.Errorf("invalid position %q", args[0])
		}
		if cur.Len() == 0 {
			return models.ChapterPair{}, fmt.Errorf("the books have no chapter pairs")
		}
		cur.Seek(k)
		if cur.Current != k {
			return models.ChapterPair{}, fmt.Errorf("position %d out of range (%d chapter pairs)", k, cur.Len())
		}
		return cur.Pair(), nil
	case 2:
		src, err := strconv.Atoi(args[0])
		if err != nil {
			return models.ChapterPair{}, fmt.Errorf("invalid source chapter %q", args[0])
		}
		dst, err := strconv.Atoi(args[1])
		if err != nil {
			return models.ChapterPair{}, fmt.Errorf("invalid destination chapter %q", args[1])
		}
		return models.ChapterPair{Src: src, Dst: dst}, nil
	default:
		return models.ChapterPair{}, fmt.Errorf("expected <position> or <src> <dst>")
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	var watchSvc server.WatchService
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		r := newReloader(cfg, components.Extractor, components.Manager, logger)
		w := watcher.New(
			[]string{cfg.Books.SourceDir, cfg.Books.DestinationDir},
			r.onChange,
			watcher.WithLogger(logger),
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc = w
	}

	srv := server.NewServer(components.Manager, &cfg.Server, logger, watchSvc)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runChapters() {
	fs := flag.NewFlagSet("chapters", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	_, logger, components := setup(*configPath, *debug, false)
	defer logger.Sync()
	defer components.Close()
	if err := cli.WriteChapters(os.Stdout, components.Manager.Chapters(), format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// openSession computes or loads the alignment of the pair named by args.
func openSession(ctx context.Context, components *Components, args []string, force bool) *session.Session {
	pair, err := parsePair(args, components.Manager.Cursor())
	if err != nil {
		fatalf("%v", err)
	}
	s, err := components.Manager.ComputeAlignment(ctx, pair, force)
	if err != nil {
		fatalf("Alignment failed: %v", err)
	}
	return s
}

func runAlign() {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	force := fs.Bool("force", false, "discard cached results and realign")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	_, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	s := openSession(context.Background(), components, fs.Args(), *force)
	if err := cli.WriteStatus(os.Stdout, []session.Status{s.Status()}, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runFixup() {
	fs := flag.NewFlagSet("fixup", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	force := fs.Bool("force", false, "discard cached results and realign first")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	s := openSession(ctx, components, fs.Args(), *force)
	if s.Manual {
		fmt.Printf("Automatic alignment failed (%s); aligning by hand.\n", s.Reason)
	}
	if err := runFixupLoop(ctx, components.Manager, s, os.Stdin, os.Stdout, cli.OutputText); err != nil {
		fatalf("Fix-up failed: %v", err)
	}
	_ = cli.WriteStatus(os.Stdout, []session.Status{s.Status()}, cli.OutputText)
}

func runMerge() {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	format := fs.String("format", session.FormatHTML, "output format: html, text or json")
	outPath := fs.String("o", "", "output file (default: stdout)")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	s := openSession(context.Background(), components, fs.Args(), false)
	var buf bytes.Buffer
	if *format == "json" {
		items, err := components.Manager.MergeChapter(s)
		if err != nil {
			fatalf("Merge failed: %v", err)
		}
		if err := cli.WriteMerged(&buf, items, cli.OutputJSON); err != nil {
			fatalf("Merge failed: %v", err)
		}
	} else if err := components.Manager.RenderChapter(&buf, s, *format); err != nil {
		fatalf("Merge failed: %v", err)
	}
	writeOutput(*outPath, buf.Bytes())
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	outPath := fs.String("o", "", "output .xlsx file (default: chapter_<src>_<dst>.xlsx)")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	s := openSession(context.Background(), components, fs.Args(), false)
	path := *outPath
	if path == "" {
		path = "chapter_" + s.Pair.String() + ".xlsx"
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, components.Manager.Review(s)); err != nil {
		fatalf("Export failed: %v", err)
	}
	writeOutput(path, buf.Bytes())
	fmt.Printf("Wrote %s\n", path)
}

func writeOutput(path string, data []byte) {
	if path == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatalf("Write %s: %v", path, err)
	}
}

type statusResponse struct {
	Namespace      string `json:"namespace"`
	SourceDir      string `json:"source_dir"`
	DestinationDir string `json:"destination_dir"`
	SrcChapters    int    `json:"src_chapters"`
	DstChapters    int    `json:"dst_chapters"`
	ChapterPairs   int    `json:"chapter_pairs"`
	CachedRecords  int64  `json:"cached_records"`
	DatabasePath   string `json:"database_path"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
	Translator     string `json:"translator"`
	Mode           string `json:"mode"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, logger, components := setup(*configPath, *debug, false)
	defer logger.Sync()
	defer components.Close()

	m := components.Manager
	books := m.Books()
	records, err := m.CachedRecords(context.Background())
	if err != nil {
		fatalf("Count cached records failed: %v", err)
	}
	status := statusResponse{
		Namespace:      m.Namespace(),
		SourceDir:      books.Src.Dir,
		DestinationDir: books.Dst.Dir,
		SrcChapters:    len(books.Src.Chapters),
		DstChapters:    len(books.Dst.Chapters),
		ChapterPairs:   m.Cursor().Len(),
		CachedRecords:  records,
		DatabasePath:   cfg.Storage.DatabasePath,
		Translator:     cfg.Translate.Kind,
		Mode:           cfg.Align.Mode,
	}
	if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	if err := writeStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runClearCache() {
	fs := flag.NewFlagSet("clear-cache", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	n, err := components.Manager.ClearCache(context.Background())
	if err != nil {
		fatalf("Clear cache failed: %v", err)
	}
	fmt.Printf("Deleted %d cached records\n", n)
}

func printUsage() {
	fmt.Println(`interleave - Align and interleave the paragraphs of a book and its translation

Usage:
  interleave serve [flags]                   Start the HTTP server
  interleave chapters [flags]                List chapter pairs
  interleave align [flags] <pair>            Align a chapter pair and show its status
  interleave fixup [flags] <pair>            Review flagged paragraphs interactively
  interleave merge [flags] <pair>            Write the interleaved chapter
  interleave export [flags] <pair>           Write an .xlsx review sheet
  interleave status [flags]                  Show books and cache status
  interleave clear-cache [flags]             Delete every cached alignment of the books
  interleave version                         Show version
  interleave help                            Show this help

A <pair> is either a position from "interleave chapters" or two chapter indices <src> <dst>.

Common Flags:
  --config string    Config file path (default: /usr/local/etc/interleave/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Align / Fixup Flags:
  --force            Discard cached results and realign
  --output string    Output format: text or json (align only, default: text)

Merge Flags:
  --format string    html, text or json (default: html)
  -o string          Output file (default: stdout)

Export Flags:
  -o string          Output file (default: chapter_<src>_<dst>.xlsx)

Examples:
  interleave chapters
  interleave align 3
  interleave align --force 3 4
  interleave fixup 3
  interleave merge --format html -o chapter3.html 3
  interleave export 3
  interleave status --output json`)
}
