package app

import (
	"errors"
	"fmt"
	"time"
)

// File statuses in a Report.
const (
	StatusFixed     = "fixed"
	StatusWouldFix  = "would_fix"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// File operations a FileError can come from.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// FileError is a per-file failure. It never aborts the run.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsReadError reports whether err is a FileError from reading.
func IsReadError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe) && fe.Op == OpRead
}

// IsWriteError reports whether err is a FileError from writing back.
func IsWriteError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe) && fe.Op == OpWrite
}

// Report is the result of one repair run.
type Report struct {
	Root    string `json:"root"`
	Pattern string `json:"pattern"`
	DryRun  bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary Summary      `json:"summary"`
	Files   []FileResult `json:"files"`
}

// Summary counts files by outcome.
type Summary struct {
	Inspected int `json:"inspected"`
	Fixed     int `json:"fixed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// FileResult is the outcome for one discovered file.
type FileResult struct {
	Path         string `json:"path"`
	Status       string `json:"status"`
	Replacements int    `json:"replacements"`
	Lenient      bool   `json:"lenient"`
	Error        string `json:"error,omitempty"`

	err error
}

// Err returns the per-file error, if any.
func (f FileResult) Err() error { return f.err }

// finalize normalises times and recomputes the summary from Files.
// Files keep discovery order.
func (r *Report) finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s Summary
	for _, f := range r.Files {
		switch f.Status {
		case StatusFixed, StatusWouldFix:
			s.Inspected++
			s.Fixed++
		case StatusUnchanged:
			s.Inspected++
			s.Unchanged++
		case StatusFailed:
			s.Failed++
			if IsWriteError(f.err) {
				s.Inspected++
			}
		}
	}
	r.Summary = s
}

// Err joins every per-file error, or returns nil when all files succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.err != nil {
			errs = append(errs, f.err)
		}
	}
	return errors.Join(errs...)
}
