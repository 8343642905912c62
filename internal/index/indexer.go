package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/parse"
	"github.com/Zuo-Peng/chatmem/internal/record"
	"github.com/Zuo-Peng/chatmem/internal/scan"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// Transcript is a parsed transcript with its chunk layout, ready to be
// recorded in the index.
type Transcript struct {
	Path          string
	Turns         []parse.Turn
	Ranges        []chunk.Range
	ChunksDir     string
	ChaptersDir   string
	TurnsPerChunk int
	OverlapTurns  int
}

// TranscriptKey identifies a transcript by its absolute path.
func TranscriptKey(path string) string { return absPath(path) }

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Options configures a standalone index pass over one transcript.
type Options struct {
	InputPath     string
	ChunksDir     string
	ChaptersDir   string
	TurnsPerChunk int
	OverlapTurns  int
	Force         bool
}

// IndexFile parses the transcript at opts.InputPath, records it unless it
// is unchanged since the last pass, and prunes transcripts whose files no
// longer exist.
func IndexFile(db *DB, opts Options, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats

	if err := chunk.Validate(opts.TurnsPerChunk, opts.OverlapTurns); err != nil {
		return stats, err
	}

	fi, err := scan.Stat(opts.InputPath)
	if err != nil {
		return stats, fmt.Errorf("stat %s: %w", opts.InputPath, err)
	}
	stats.Scanned = 1

	key := TranscriptKey(opts.InputPath)
	needs := opts.Force
	if !needs {
		if needs, err = needsUpdate(db, key, fi, opts.TurnsPerChunk, opts.OverlapTurns); err != nil {
			return stats, err
		}
	}

	if !needs {
		stats.Skipped++
		logger.Debug("transcript unchanged", "path", opts.InputPath)
	} else {
		turns, err := parse.ParseFile(opts.InputPath)
		if err != nil {
			return stats, fmt.Errorf("parse %s: %w", opts.InputPath, err)
		}
		ranges, err := chunk.Indices(len(turns), opts.TurnsPerChunk, opts.OverlapTurns)
		if err != nil {
			return stats, err
		}
		t := Transcript{
			Path:          opts.InputPath,
			Turns:         turns,
			Ranges:        ranges,
			ChunksDir:     opts.ChunksDir,
			ChaptersDir:   opts.ChaptersDir,
			TurnsPerChunk: opts.TurnsPerChunk,
			OverlapTurns:  opts.OverlapTurns,
		}
		if err := indexTranscript(db, t, fi); err != nil {
			stats.Errors++
			logger.Warn("index failed", "path", opts.InputPath, "err", err)
		} else {
			stats.Updated++
		}
	}

	pruned, err := pruneTranscripts(db, logger)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned
	return stats, nil
}

// Record writes an already parsed transcript into the index, replacing any
// previous version of it.
func Record(db *DB, t Transcript) error {
	fi, err := scan.Stat(t.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", t.Path, err)
	}
	return indexTranscript(db, t, fi)
}

func needsUpdate(db *DB, key string, fi scan.FileInfo, size, overlap int) (bool, error) {
	info, err := db.GetTranscriptInfo(key)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new transcript
	}
	return info.Mtime != fi.Mtime || info.Size != fi.Size ||
		info.TurnsPerChunk != size || info.OverlapTurns != overlap, nil
}

func indexTranscript(db *DB, t Transcript, fi scan.FileInfo) error {
	key := TranscriptKey(t.Path)

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// delete old data first
	if err := deleteTranscript(tx, key); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO transcripts (transcript_key, file_path, run_id, turns_per_chunk, overlap_turns, turn_count, chunk_count, mtime, size, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		key,
		uuid.NewString(),
		t.TurnsPerChunk,
		t.OverlapTurns,
		len(t.Turns),
		len(t.Ranges),
		fi.Mtime,
		fi.Size,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	chunkStmt, err := tx.Prepare(
		`INSERT INTO chunks (transcript_key, chunk_id, start_idx, end_idx, first_ts, last_ts, chunk_path, record_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	// owner[i] is the first chunk containing turn i
	owner := make([]int, len(t.Turns))
	for _, r := range t.Ranges {
		if r.Len() == 0 || r.End > len(t.Turns) {
			return fmt.Errorf("chunk %s out of range", r.Stem())
		}
		first, last := t.Turns[r.Start], t.Turns[r.End-1]
		_, err := chunkStmt.Exec(
			key,
			r.ID,
			first.Index,
			last.Index,
			first.Timestamp,
			last.Timestamp,
			absPath(filepath.Join(t.ChunksDir, chunk.TextName(r.ID))),
			absPath(filepath.Join(t.ChaptersDir, record.FileName(r.ID))),
		)
		if err != nil {
			return err
		}
		for i := r.Start; i < r.End; i++ {
			if owner[i] == 0 {
				owner[i] = r.ID
			}
		}
	}

	turnStmt, err := tx.Prepare(
		`INSERT INTO turns (transcript_key, idx, chunk_id, ts, speaker, content)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer turnStmt.Close()

	for i, turn := range t.Turns {
		if _, err := turnStmt.Exec(key, turn.Index, owner[i], turn.Timestamp, turn.Speaker, turn.Content); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// pruneTranscripts drops transcripts whose source file no longer exists.
func pruneTranscripts(db *DB, logger *slog.Logger) (int, error) {
	all, err := db.AllTranscripts()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key, path := range all {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := db.DeleteTranscript(key); err != nil {
			return pruned, err
		}
		logger.Debug("pruned transcript", "path", path)
		pruned++
	}
	return pruned, nil
}
