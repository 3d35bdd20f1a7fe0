package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"covabdab/internal/config"
	"covabdab/internal/convert"
	"covabdab/internal/covabdab"
	"covabdab/internal/fasta"

	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// splitColumns parses a comma-separated column list flag. Column names in
// the CoV-AbDab schema contain spaces but never commas.
func splitColumns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func newLogger(cfg *config.Config, verbose bool) *log.Logger {
	var loggerOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info", "":
		logger.SetLevel(log.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
		logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
	}
	return logger
}

func main() {
	// CLI flags
	inputFlag := flag.String("in", "", "input CoV-AbDab CSV file path")
	urlFlag := flag.String("url", "", "download the CoV-AbDab CSV from this URL instead of reading a file")
	outputFlag := flag.String("out", "", "output FASTA file path (default: input name with .fasta extension)")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	headerCols := flag.String("header-cols", "", "comma-separated header columns (default: Name,Ab or Nb,Origin)")
	seqCols := flag.String("seq-cols", "", "comma-separated sequence columns (default: CDRH3,CDRL3,VH or VHH,VL)")
	dryRun := flag.Bool("dry-run", false, "convert but do not write the output file")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("covabdab", version)
		return
	}

	// load config (optional file); flags override config when provided
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covabdab: bad config: %v\n", err)
		os.Exit(1)
	}
	if *inputFlag != "" {
		cfg.InputCSV = *inputFlag
	}
	if *urlFlag != "" {
		cfg.InputURL = *urlFlag
	}
	if *outputFlag != "" {
		cfg.OutputFasta = *outputFlag
	}
	if cols := splitColumns(*headerCols); cols != nil {
		cfg.HeaderColumns = cols
	}
	if cols := splitColumns(*seqCols); cols != nil {
		cfg.SequenceColumns = cols
	}

	logger := newLogger(cfg, *verbose)
	logger.Debug("loaded config", "input_csv", cfg.InputCSV, "input_url", cfg.InputURL, "output_fasta", cfg.OutputFasta, "log_level", cfg.LogLevel)

	if cfg.CachePath != "" {
		covabdab.SetCacheDir(cfg.CachePath)
	}
	if cfg.CacheTTLSecs > 0 {
		covabdab.SetCacheTTLSeconds(cfg.CacheTTLSecs)
	}

	// pick the input: an explicit file wins, else a URL download
	var (
		in        io.ReadCloser
		inputName string
	)
	switch {
	case cfg.InputCSV != "":
		f, err := os.Open(cfg.InputCSV)
		if err != nil {
			logger.Fatal("failed to open input CSV", "path", cfg.InputCSV, "err", err)
		}
		in = f
		inputName = cfg.InputCSV
	default:
		url := cfg.InputURL
		if url == "" {
			url = covabdab.DefaultCSVURL
		}
		logger.Info("downloading CoV-AbDab CSV", "url", url)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		rc, err := covabdab.FetchCSV(ctx, url)
		if err != nil {
			logger.Fatal("failed to download CSV", "url", url, "err", err)
		}
		in = rc
		inputName = url
	}
	defer in.Close()

	start := time.Now()
	tbl, err := covabdab.ReadTable(in)
	if err != nil {
		var bad *covabdab.BadInputError
		if errors.As(err, &bad) {
			logger.Fatal("input is not a usable CSV", "input", inputName, "err", err)
		}
		logger.Fatal("failed to read input", "input", inputName, "err", err)
	}
	logger.Info("parsed CSV", "input", inputName, "columns", len(tbl.Columns), "rows", tbl.Len())

	res, err := convert.Convert(tbl, convert.Options{
		HeaderColumns:   cfg.HeaderColumns,
		SequenceColumns: cfg.SequenceColumns,
	})
	if err != nil {
		var schema *covabdab.SchemaError
		if errors.As(err, &schema) {
			logger.Fatal("CSV schema does not match", "missing_columns", strings.Join(schema.Missing, ", "))
		}
		logger.Fatal("conversion failed", "err", err)
	}
	logger.Info("converted", "rows", res.Rows, "records", res.Emitted, "skipped_values", res.SkippedValues, "skipped_rows", res.SkippedRows, "duration_ms", time.Since(start).Milliseconds())

	outPath := cfg.OutputFasta
	if outPath == "" {
		outPath = convert.OutputName(inputName)
	}

	if *dryRun {
		logger.Info("dry-run: would write FASTA", "path", outPath, "records", res.Emitted)
		return
	}

	out, err := os.Create(outPath)
	if err != nil {
		logger.Fatal("failed to create output file", "path", outPath, "err", err)
	}
	if err := fasta.WriteRecords(res.Records, out, "\n"); err != nil {
		out.Close()
		logger.Fatal("failed to write FASTA", "path", outPath, "err", err)
	}
	if err := out.Close(); err != nil {
		logger.Fatal("failed to close output file", "path", outPath, "err", err)
	}
	logger.Info("wrote FASTA", "path", outPath, "records", res.Emitted)
}
