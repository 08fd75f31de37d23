// Package output writes the accepted dataset and the rejection report of a
// run as two CSV files with fixed headers.
package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"custdq/pkg/records"
)

// Writer places run files under Dir as <Prefix>_main_<stamp>.csv and
// <Prefix>_reject_<stamp>.csv.
type Writer struct {
	Dir         string
	Prefix      string
	StampLayout string

	// TimeLayout formats time cells (rejection_timestamp).
	TimeLayout string
}

// Files describes what WriteRun produced.
type Files struct {
	Main   string
	Reject string

	// MainDigest is the xxh3 hash of the accepted file. Re-running the same
	// input yields the same digest.
	MainDigest uint64
	MainRows   int
	RejectRows int
}

// Paths returns the two file paths for a run stamped at t.
func (w Writer) Paths(t time.Time) (main, reject string) {
	stamp := t.Format(w.StampLayout)
	main = filepath.Join(w.Dir, fmt.Sprintf("%s_main_%s.csv", w.Prefix, stamp))
	reject = filepath.Join(w.Dir, fmt.Sprintf("%s_reject_%s.csv", w.Prefix, stamp))
	return main, reject
}

// WriteRun renders both tables and publishes them. Nothing is visible under
// the final names until both files are fully written.
func (w Writer) WriteRun(t time.Time, accepted, rejected records.Table) (Files, error) {
	mainPath, rejectPath := w.Paths(t)
	f := Files{Main: mainPath, Reject: rejectPath, MainRows: len(accepted.Rows), RejectRows: len(rejected.Rows)}

	mainBytes, err := w.render(accepted)
	if err != nil {
		return Files{}, fmt.Errorf("render accepted: %w", err)
	}
	rejectBytes, err := w.render(rejected)
	if err != nil {
		return Files{}, fmt.Errorf("render rejected: %w", err)
	}
	f.MainDigest = xxh3.Hash(mainBytes)

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create dir %s: %w", w.Dir, err)
	}
	mainTmp, err := writeTemp(w.Dir, mainBytes)
	if err != nil {
		return Files{}, err
	}
	rejectTmp, err := writeTemp(w.Dir, rejectBytes)
	if err != nil {
		_ = os.Remove(mainTmp)
		return Files{}, err
	}

	if err := os.Rename(mainTmp, mainPath); err != nil {
		_ = os.Remove(mainTmp)
		_ = os.Remove(rejectTmp)
		return Files{}, fmt.Errorf("publish %s: %w", mainPath, err)
	}
	if err := os.Rename(rejectTmp, rejectPath); err != nil {
		_ = os.Remove(rejectTmp)
		return Files{}, errors.Join(
			fmt.Errorf("publish %s: %w", rejectPath, err),
			os.Remove(mainPath),
		)
	}
	return f, nil
}

// render writes a header row plus one record per table row.
func (w Writer) render(t records.Table) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.Columns); err != nil {
		return nil, err
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		for j, v := range row {
			rec[j] = records.FormatCell(v, w.TimeLayout)
		}
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func writeTemp(dir string, b []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".custdq-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}
