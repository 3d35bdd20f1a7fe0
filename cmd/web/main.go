package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"covabdab/internal/config"
	"covabdab/internal/convert"
	"covabdab/internal/covabdab"
	"covabdab/internal/fasta"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// UploadPage carries the defaults rendered into the upload form.
type UploadPage struct {
	DefaultURL      string
	HeaderColumns   string
	SequenceColumns string
}

var templates *template.Template

func loadTemplates(dir string) error {
	t := template.New("")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".html") {
			if _, err := t.ParseFiles(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	templates = t
	return nil
}

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		logger.Info("request",
			"remote", r.RemoteAddr, "method", r.Method, "uri", r.URL.RequestURI(),
			"status", srw.status, "bytes", srw.written, "duration", time.Since(start))
	})
}

// splitColumns parses the comma-separated column lists posted by the form.
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

func defaultPage() UploadPage {
	return UploadPage{
		DefaultURL:      covabdab.DefaultCSVURL,
		HeaderColumns:   strings.Join(covabdab.DefaultHeaderColumns, ", "),
		SequenceColumns: strings.Join(covabdab.DefaultSequenceColumns, ", "),
	}
}

func indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := templates.ExecuteTemplate(w, "base.html", defaultPage()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// convertHandler accepts a multipart CSV upload (field "csv") or a CSV
// URL (field "url"), converts it, records a history entry and returns
// the FASTA as a download. Bad input and schema mismatches come back as
// 400 with a message naming the problem.
func convertHandler(logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			http.Error(w, "bad upload: "+err.Error(), http.StatusBadRequest)
			return
		}

		var (
			tbl       *covabdab.Table
			inputName string
			readErr   error
		)
		if file, header, err := r.FormFile("csv"); err == nil {
			defer file.Close()
			inputName = header.Filename
			tbl, readErr = covabdab.ReadTable(file)
		} else if url := strings.TrimSpace(r.FormValue("url")); url != "" {
			inputName = url
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			defer cancel()
			rc, err := covabdab.FetchCSV(ctx, url)
			if err != nil {
				failConversion(w, logger, inputName, "download failed: "+err.Error())
				return
			}
			defer rc.Close()
			tbl, readErr = covabdab.ReadTable(rc)
		} else {
			http.Error(w, "no CSV file or URL provided", http.StatusBadRequest)
			return
		}

		if readErr != nil {
			failConversion(w, logger, inputName, readErr.Error())
			return
		}

		res, err := convert.Convert(tbl, convert.Options{
			HeaderColumns:   splitColumns(r.FormValue("header_cols")),
			SequenceColumns: splitColumns(r.FormValue("seq_cols")),
		})
		if err != nil {
			failConversion(w, logger, inputName, err.Error())
			return
		}

		job := ConversionJob{
			ID:            uuid.NewString(),
			Filename:      inputName,
			Rows:          res.Rows,
			Records:       res.Emitted,
			SkippedValues: res.SkippedValues,
			State:         "ok",
			CreatedAt:     time.Now().UTC(),
		}
		if err := appendJob(job); err != nil {
			logger.Warn("failed to persist history entry", "err", err)
		}

		var buf bytes.Buffer
		if err := fasta.WriteRecords(res.Records, &buf, "\n"); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		name := convert.OutputName(inputName)
		logger.Info("converted upload", "input", inputName, "rows", res.Rows, "records", res.Emitted, "skipped_values", res.SkippedValues)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		_, _ = w.Write(buf.Bytes())
	}
}

// failConversion records a failed history entry and replies 400. Schema
// mismatches keep their detailed message so the user sees which columns
// were missing.
func failConversion(w http.ResponseWriter, logger *log.Logger, inputName, msg string) {
	job := ConversionJob{
		ID:        uuid.NewString(),
		Filename:  inputName,
		State:     "failed",
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if err := appendJob(job); err != nil {
		logger.Warn("failed to persist history entry", "err", err)
	}
	logger.Warn("conversion rejected", "input", inputName, "reason", msg)
	http.Error(w, msg, http.StatusBadRequest)
}

func historyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := readJobs()
		if err != nil {
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		// newest first
		sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
		if err := templates.ExecuteTemplate(w, "history.html", jobs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// apiHistoryHandler returns the conversion history as JSON
func apiHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := readJobs()
		if err != nil {
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(jobs)
	}
}

func newLogger(cfg *config.Config, verbose bool) *log.Logger {
	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	templatesDir := flag.String("templates", "web/templates", "directory with HTML templates")
	staticDir := flag.String("static", "web/static", "directory with static assets")
	historyStore := flag.String("history-store", "", "history backend: json or sqlite")
	historyPath := flag.String("history-path", "", "history file (json) or database (sqlite) path")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "covabdab-web: bad config: %v\n", err)
		os.Exit(1)
	}
	if cfg.ListenAddr != "" && *addr == ":8080" {
		*addr = cfg.ListenAddr
	}
	store := cfg.HistoryStore
	if *historyStore != "" {
		store = *historyStore
	}
	if store == "" {
		store = "json"
	}
	path := cfg.HistoryPath
	if *historyPath != "" {
		path = *historyPath
	}
	if path == "" {
		if store == "sqlite" {
			path = "history.db"
		} else {
			path = "history.json"
		}
	}

	logger := newLogger(cfg, *verbose)

	if err := loadTemplates(*templatesDir); err != nil {
		logger.Fatal("failed to load templates", "dir", *templatesDir, "err", err)
	}
	if err := openHistory(store, path); err != nil {
		logger.Fatal("failed to open history store", "store", store, "path", path, "err", err)
	}
	defer closeHistory()

	if cfg.CachePath != "" {
		covabdab.SetCacheDir(cfg.CachePath)
	}
	if cfg.CacheTTLSecs > 0 {
		covabdab.SetCacheTTLSeconds(cfg.CacheTTLSecs)
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(*staticDir))))
	mux.HandleFunc("/", indexHandler())
	mux.HandleFunc("/convert", convertHandler(logger))
	mux.HandleFunc("/history", historyHandler())
	mux.HandleFunc("/api/history", apiHistoryHandler())

	handler := loggingMiddleware(logger, mux)

	srv := &http.Server{Addr: *addr, Handler: handler, ReadTimeout: 30 * time.Second, WriteTimeout: 60 * time.Second}
	logger.Info("serving CoV-AbDab converter", "addr", *addr, "history_store", store, "history_path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", "err", err)
	}
}
