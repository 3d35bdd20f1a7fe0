package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	InputCSV         string   `json:"input_csv"`
	InputURL         string   `json:"input_url"`
	OutputFasta      string   `json:"output_fasta"`
	HeaderColumns    []string `json:"header_columns"`
	SequenceColumns  []string `json:"sequence_columns"`
	LogFile          string   `json:"log_file"`
	LogLevel         string   `json:"log_level"`
	ListenAddr       string   `json:"listen_addr"`
	HistoryStore     string   `json:"history_store"`
	HistoryPath      string   `json:"history_path"`
	CachePath        string   `json:"cache_path"`
	CacheTTLSecs     int64    `json:"cache_ttl_seconds"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// A missing default config.json is not fatal (defaults are returned); a
// path the user named explicitly must be readable.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = "config.json"
	}
	f, err := os.Open(path)
	if err != nil {
		if explicit {
			return nil, err
		}
		// not fatal: return defaults
		return &Config{}, nil
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
