// Package split turns a raw chat transcript into chunk text files and
// record skeletons.
package split

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/fsx"
	"github.com/Zuo-Peng/chatmem/internal/parse"
	"github.com/Zuo-Peng/chatmem/internal/record"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

// ErrInput is returned when the transcript is missing or yields no turns.
var ErrInput = errors.New("input error")

type Options struct {
	InputPath     string
	ChunksDir     string
	ChaptersDir   string
	SchemaPath    string
	TurnsPerChunk int
	Overlap       int
}

// Chunk describes the files produced for one range.
type Chunk struct {
	Range      chunk.Range
	TextPath   string
	RecordPath string
	Created    bool // false when an existing record was kept
}

type Result struct {
	InputPath string
	Turns     []parse.Turn
	Chunks    []Chunk
}

// Created counts skeletons written in this run.
func (r *Result) Created() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Created {
			n++
		}
	}
	return n
}

// Kept counts records left untouched because they already existed.
func (r *Result) Kept() int { return len(r.Chunks) - r.Created() }

// TurnsOf returns the turns covered by c.
func (r *Result) TurnsOf(c Chunk) []parse.Turn {
	return r.Turns[c.Range.Start:c.Range.End]
}

// Run executes the split flow. Chunk parameters are checked before any
// file is touched; chunk texts are rewritten every run while records are
// only created when absent.
func Run(opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := chunk.Validate(opts.TurnsPerChunk, opts.Overlap); err != nil {
		return nil, err
	}

	if _, err := os.Stat(opts.InputPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing input file: %s", ErrInput, opts.InputPath)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}

	s, err := schema.Load(opts.SchemaPath)
	if err != nil {
		return nil, err
	}

	turns, err := parse.ParseFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInput, opts.InputPath, err)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no turns parsed from %s, check the [YYYY-MM-DD HH:MM:SS] speaker: line format", ErrInput, opts.InputPath)
	}
	logger.Debug("parsed transcript", "path", opts.InputPath, "turns", len(turns))

	ranges, err := chunk.Indices(len(turns), opts.TurnsPerChunk, opts.Overlap)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{opts.ChunksDir, opts.ChaptersDir} {
		if err := os.MkdirAll(dir, fsx.PermDir); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	res := &Result{InputPath: opts.InputPath, Turns: turns}
	for _, r := range ranges {
		ct := turns[r.Start:r.End]

		textPath, err := chunk.WriteFile(opts.ChunksDir, r, ct)
		if err != nil {
			return nil, fmt.Errorf("write chunk %s: %w", r.Stem(), err)
		}

		recPath, created, err := record.WriteSkeleton(opts.ChaptersDir, r.ID, s, ct[0], ct[len(ct)-1])
		if err != nil {
			return nil, err
		}
		if created {
			logger.Debug("skeleton written", "chunk", r.Stem(), "path", recPath)
		} else {
			logger.Debug("record kept", "chunk", r.Stem(), "path", recPath)
		}

		res.Chunks = append(res.Chunks, Chunk{Range: r, TextPath: textPath, RecordPath: recPath, Created: created})
	}

	logger.Info("split complete", "turns", len(turns), "chunks", len(res.Chunks), "created", res.Created(), "kept", res.Kept())
	return res, nil
}

// WriteSummary prints the end-of-run summary for an operator.
func (r *Result) WriteSummary(w io.Writer, chunksDir, chaptersDir string) {
	fmt.Fprintf(w, "Parsed turns: %d\n", len(r.Turns))
	fmt.Fprintf(w, "Chunks written: %d -> %s\n", len(r.Chunks), absPath(chunksDir))
	fmt.Fprintf(w, "Record skeletons: %d new, %d kept -> %s\n", r.Created(), r.Kept(), absPath(chaptersDir))
	fmt.Fprintln(w, "Next: fill in the record files, then run: chatmem verify")
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
