// Package verify checks that every chunk has a record and that every
// record satisfies the schema.
package verify

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Zuo-Peng/chatmem/internal/record"
	"github.com/Zuo-Peng/chatmem/internal/scan"
	"github.com/Zuo-Peng/chatmem/internal/schema"
	"github.com/Zuo-Peng/chatmem/internal/validate"
)

var (
	// ErrMissing is returned when a directory or the schema file the
	// check depends on does not exist.
	ErrMissing = errors.New("missing input")
	// ErrProblems is returned by Report.Err when any chunk lacks a record
	// or any record has violations.
	ErrProblems = errors.New("verification failed")
)

type Options struct {
	ChunksDir   string
	ChaptersDir string
	SchemaPath  string
}

// Result is the outcome for one record file.
type Result struct {
	Stem       string
	Path       string
	Violations []string
}

type Report struct {
	ChunkCount  int
	RecordCount int
	Missing     []string // chunk stems without a record
	Orphans     []string // record stems without a chunk
	Results     []Result // one per record, in name order
}

// Invalid returns the results that carry at least one violation.
func (r *Report) Invalid() []Result {
	var out []Result
	for _, res := range r.Results {
		if len(res.Violations) > 0 {
			out = append(out, res)
		}
	}
	return out
}

// Problems counts missing records plus invalid records. Orphans are
// listed but not counted.
func (r *Report) Problems() int {
	return len(r.Missing) + len(r.Invalid())
}

func (r *Report) Err() error {
	if n := r.Problems(); n > 0 {
		return fmt.Errorf("%w: %d problem(s)", ErrProblems, n)
	}
	return nil
}

// Lookup returns the result for a chunk stem, if its record was checked.
func (r *Report) Lookup(stem string) (Result, bool) {
	for _, res := range r.Results {
		if res.Stem == stem {
			return res, true
		}
	}
	return Result{}, false
}

// Run scans both directories and validates every record against the
// schema. Missing inputs are reported as ErrMissing before any work.
func Run(opts Options, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := requireDir(opts.ChunksDir); err != nil {
		return nil, err
	}
	if err := requireDir(opts.ChaptersDir); err != nil {
		return nil, err
	}
	if _, err := os.Stat(opts.SchemaPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing schema file: %s", ErrMissing, opts.SchemaPath)
		}
		return nil, fmt.Errorf("stat schema: %w", err)
	}

	s, err := schema.Load(opts.SchemaPath)
	if err != nil {
		return nil, err
	}

	pairing, err := scan.ScanDirs(opts.ChunksDir, opts.ChaptersDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rep := &Report{
		ChunkCount:  len(pairing.Chunks),
		RecordCount: len(pairing.Records),
		Missing:     pairing.MissingRecords,
		Orphans:     pairing.OrphanRecords,
	}
	for _, f := range pairing.Records {
		res := CheckFile(s, f.Path)
		res.Stem = f.Stem
		if len(res.Violations) > 0 {
			logger.Debug("record invalid", "path", f.Path, "violations", len(res.Violations))
		}
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

// CheckFile validates a single record file. A file that cannot be read or
// decoded yields exactly one violation.
func CheckFile(s *schema.Schema, path string) Result {
	res := Result{Path: path}
	doc, err := record.Load(path)
	if err != nil {
		res.Violations = []string{fmt.Sprintf("YAML parse error: %v", err)}
		return res
	}
	res.Violations = validate.Record(s, doc)
	return res
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: missing directory: %s", ErrMissing, path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: not a directory: %s", ErrMissing, path)
	}
	return nil
}
