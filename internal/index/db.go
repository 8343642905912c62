package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS transcripts (
    transcript_key  TEXT PRIMARY KEY,
    file_path       TEXT NOT NULL,
    run_id          TEXT NOT NULL DEFAULT '',
    turns_per_chunk INTEGER NOT NULL DEFAULT 0,
    overlap_turns   INTEGER NOT NULL DEFAULT 0,
    turn_count      INTEGER NOT NULL DEFAULT 0,
    chunk_count     INTEGER NOT NULL DEFAULT 0,
    mtime           INTEGER NOT NULL DEFAULT 0,
    size            INTEGER NOT NULL DEFAULT 0,
    indexed_at      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chunks (
    transcript_key TEXT NOT NULL,
    chunk_id       INTEGER NOT NULL,
    start_idx      INTEGER NOT NULL,
    end_idx        INTEGER NOT NULL,
    first_ts       TEXT NOT NULL DEFAULT '',
    last_ts        TEXT NOT NULL DEFAULT '',
    chunk_path     TEXT NOT NULL DEFAULT '',
    record_path    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (transcript_key, chunk_id)
);

CREATE TABLE IF NOT EXISTS turns (
    transcript_key TEXT NOT NULL,
    idx            INTEGER NOT NULL,
    chunk_id       INTEGER NOT NULL,
    ts             TEXT NOT NULL DEFAULT '',
    speaker        TEXT NOT NULL DEFAULT '',
    content        TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (transcript_key, idx)
);

CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
    content,
    content=turns,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS turns_ai AFTER INSERT ON turns BEGIN
    INSERT INTO turns_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS turns_ad AFTER DELETE ON turns BEGIN
    INSERT INTO turns_fts(turns_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS turns_au AFTER UPDATE ON turns BEGIN
    INSERT INTO turns_fts(turns_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO turns_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// schemaVersion should be bumped whenever turn parsing or chunking changes
// to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if ver == schemaVersion {
		return nil
	}
	// force re-index by resetting all transcript mtime/size to 0
	if _, err := d.db.Exec("UPDATE transcripts SET mtime = 0, size = 0"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// TranscriptInfo is what change detection compares against.
type TranscriptInfo struct {
	Mtime         int64
	Size          int64
	TurnsPerChunk int
	OverlapTurns  int
}

func (d *DB) GetTranscriptInfo(key string) (*TranscriptInfo, error) {
	var info TranscriptInfo
	err := d.db.QueryRow(
		"SELECT mtime, size, turns_per_chunk, overlap_turns FROM transcripts WHERE transcript_key = ?",
		key,
	).Scan(&info.Mtime, &info.Size, &info.TurnsPerChunk, &info.OverlapTurns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// AllTranscripts maps every indexed transcript key to its file path.
func (d *DB) AllTranscripts() (map[string]string, error) {
	rows, err := d.db.Query("SELECT transcript_key, file_path FROM transcripts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, p string
		if err := rows.Scan(&k, &p); err != nil {
			return nil, err
		}
		out[k] = p
	}
	return out, rows.Err()
}

func (d *DB) DeleteTranscript(key string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteTranscript(tx, key); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteTranscript(tx *sql.Tx, key string) error {
	for _, q := range []string{
		"DELETE FROM turns WHERE transcript_key = ?",
		"DELETE FROM chunks WHERE transcript_key = ?",
		"DELETE FROM transcripts WHERE transcript_key = ?",
	} {
		if _, err := tx.Exec(q, key); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) count(q string) (int, error) {
	var n int
	err := d.db.QueryRow(q).Scan(&n)
	return n, err
}

func (d *DB) TranscriptCount() (int, error) { return d.count("SELECT COUNT(*) FROM transcripts") }
func (d *DB) ChunkCount() (int, error)      { return d.count("SELECT COUNT(*) FROM chunks") }
func (d *DB) TurnCount() (int, error)       { return d.count("SELECT COUNT(*) FROM turns") }
func (d *DB) FTSCount() (int, error)        { return d.count("SELECT COUNT(*) FROM turns_fts") }

type TranscriptRow struct {
	Key           string
	FilePath      string
	RunID         string
	TurnsPerChunk int
	OverlapTurns  int
	TurnCount     int
	ChunkCount    int
	IndexedAt     string
}

func (d *DB) GetTranscript(key string) (*TranscriptRow, error) {
	var t TranscriptRow
	err := d.db.QueryRow(
		`SELECT transcript_key, file_path, run_id, turns_per_chunk, overlap_turns, turn_count, chunk_count, indexed_at
		 FROM transcripts WHERE transcript_key = ?`,
		key,
	).Scan(&t.Key, &t.FilePath, &t.RunID, &t.TurnsPerChunk, &t.OverlapTurns, &t.TurnCount, &t.ChunkCount, &t.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ChunkRow is one indexed chunk. StartIdx and EndIdx are the inclusive
// 1-based turn indices, as printed in the chunk header.
type ChunkRow struct {
	TranscriptKey string
	ChunkID       int
	StartIdx      int
	EndIdx        int
	FirstTs       string
	LastTs        string
	ChunkPath     string
	RecordPath    string
}

func (c ChunkRow) TurnCount() int { return c.EndIdx - c.StartIdx + 1 }

const chunkCols = "transcript_key, chunk_id, start_idx, end_idx, first_ts, last_ts, chunk_path, record_path"

func scanChunk(sc interface{ Scan(...any) error }) (ChunkRow, error) {
	var c ChunkRow
	err := sc.Scan(&c.TranscriptKey, &c.ChunkID, &c.StartIdx, &c.EndIdx, &c.FirstTs, &c.LastTs, &c.ChunkPath, &c.RecordPath)
	return c, err
}

func (d *DB) GetChunk(key string, chunkID int) (*ChunkRow, error) {
	c, err := scanChunk(d.db.QueryRow(
		"SELECT "+chunkCols+" FROM chunks WHERE transcript_key = ? AND chunk_id = ?",
		key, chunkID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChunks returns the chunks of one transcript, or of all transcripts
// when key is empty, ordered by transcript and chunk id.
func (d *DB) ListChunks(key string) ([]ChunkRow, error) {
	q := "SELECT " + chunkCols + " FROM chunks"
	var args []any
	if key != "" {
		q += " WHERE transcript_key = ?"
		args = append(args, key)
	}
	q += " ORDER BY transcript_key, chunk_id"

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []ChunkRow
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

type TurnRow struct {
	TranscriptKey string
	Idx           int
	ChunkID       int // first chunk containing the turn
	Ts            string
	Speaker       string
	Content       string
}

// GetChunkTurns returns every turn of the chunk, including turns shared
// with the previous chunk through overlap.
func (d *DB) GetChunkTurns(key string, chunkID int) ([]TurnRow, error) {
	c, err := d.GetChunk(key, chunkID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	rows, err := d.db.Query(
		`SELECT transcript_key, idx, chunk_id, ts, speaker, content FROM turns
		 WHERE transcript_key = ? AND idx BETWEEN ? AND ? ORDER BY idx`,
		key, c.StartIdx, c.EndIdx,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []TurnRow
	for rows.Next() {
		var t TurnRow
		if err := rows.Scan(&t.TranscriptKey, &t.Idx, &t.ChunkID, &t.Ts, &t.Speaker, &t.Content); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
