package main

import (
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ConversionJob is one entry in the conversion history: which file was
// converted, how it went, and the counters the converter reported.
type ConversionJob struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Rows          int       `json:"rows"`
	Records       int       `json:"records"`
	SkippedValues int       `json:"skipped_values"`
	State         string    `json:"state"` // "ok" or "failed"
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// History persistence. Two backends are supported: a JSON file (the
// default, zero setup) and sqlite for installs that keep a long history.
var (
	jobsMu    sync.Mutex
	jobsStore = "json"
	jobsPath  = "history.json"
	jobsDB    *sql.DB
)

// openHistory prepares the selected backend. For sqlite it opens the
// database and creates the schema; for json it only records the path.
func openHistory(store, path string) error {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	jobsStore = store
	jobsPath = path
	if store != "sqlite" {
		return nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
        id TEXT PRIMARY KEY,
        filename TEXT,
        rows INTEGER,
        records INTEGER,
        skipped_values INTEGER,
        state TEXT,
        message TEXT,
        created_at TEXT
    )`); err != nil {
		db.Close()
		return err
	}
	jobsDB = db
	return nil
}

func closeHistory() {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	if jobsDB != nil {
		_ = jobsDB.Close()
		jobsDB = nil
	}
}

// saveJobs replaces the stored history with jobs.
func saveJobs(path string, jobs []ConversionJob) error {
	if jobsStore == "sqlite" && jobsDB != nil {
		tx, err := jobsDB.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM jobs`); err != nil {
			tx.Rollback()
			return err
		}
		for _, j := range jobs {
			if _, err := tx.Exec(
				`INSERT INTO jobs (id, filename, rows, records, skipped_values, state, message, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				j.ID, j.Filename, j.Rows, j.Records, j.SkippedValues, j.State, j.Message,
				j.CreatedAt.UTC().Format(time.RFC3339),
			); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadJobs returns the stored history, newest last. A missing JSON file
// is an empty history, not an error.
func loadJobs(path string) ([]ConversionJob, error) {
	if jobsStore == "sqlite" && jobsDB != nil {
		rows, err := jobsDB.Query(`SELECT id, filename, rows, records, skipped_values, state, message, created_at
            FROM jobs ORDER BY created_at`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var jobs []ConversionJob
		for rows.Next() {
			var j ConversionJob
			var created string
			if err := rows.Scan(&j.ID, &j.Filename, &j.Rows, &j.Records, &j.SkippedValues, &j.State, &j.Message, &created); err != nil {
				return nil, err
			}
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				j.CreatedAt = t
			}
			jobs = append(jobs, j)
		}
		return jobs, rows.Err()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var jobs []ConversionJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// appendJob adds one entry to the history. Failures to persist are
// returned so the caller can log them; the conversion result itself is
// never blocked on history writes.
func appendJob(job ConversionJob) error {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	jobs, err := loadJobs(jobsPath)
	if err != nil {
		return err
	}
	jobs = append(jobs, job)
	return saveJobs(jobsPath, jobs)
}

// readJobs returns the stored history under the same lock the writers
// hold; saveJobs rewrites the JSON file in place, so an unlocked read
// could observe a partially written file.
func readJobs() ([]ConversionJob, error) {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	return loadJobs(jobsPath)
}
