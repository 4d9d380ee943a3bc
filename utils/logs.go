package utils

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusSkipped   = "SKIPPED"
	StatusFailed    = "FAILED"
)

// LogEntry is one line of the JSON run log.
type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Tool      string `json:"msg"`
	Run       string `json:"RUN"`
	Program   string `json:"PROGRAM"`
	Species   string `json:"SPECIES"`
	Label     string `json:"LABEL"`
	Status    string `json:"STATUS"`
}

// NewLogger returns a logger writing JSON lines to logPath and readable text
// to stderr. The returned close func must be called once the run is over.
func NewLogger(logPath string, level slog.Level) (*slog.Logger, func() error, error) {
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, err
	}
	return newFanoutLogger(logFile, os.Stderr, level), logFile.Close, nil
}

func newFanoutLogger(jsonOut, textOut io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handler := slogmulti.Fanout(
		slog.NewJSONHandler(jsonOut, opts),
		slog.NewTextHandler(textOut, opts),
	)
	return slog.New(handler).With("RUN", uuid.NewString())
}

// ParseLogFile reads every decodable entry of a JSON run log. A missing file
// yields no entries.
func ParseLogFile(logPath string) []LogEntry {
	var entries []LogEntry
	file, err := os.Open(logPath)
	if err != nil {
		return entries
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// StageHasCompleted reports whether program ever completed for species under label.
func StageHasCompleted(entries []LogEntry, program, species, label string) bool {
	for _, e := range entries {
		if e.Program == program && e.Species == species && e.Label == label && e.Status == StatusCompleted {
			return true
		}
	}
	return false
}
