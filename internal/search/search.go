package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatmem/internal/index"
)

// Result is one matching turn, attributed to the first chunk that
// contains it.
type Result struct {
	TranscriptKey string
	ChunkID       int
	TurnIdx       int
	Ts            string
	Speaker       string
	Snippet       string
	Rank          float64
}

type Options struct {
	Query         string
	TranscriptKey string // "" = all transcripts
	Speaker       string // "" = all speakers
	Since         string // "" = no filter, e.g. "2024-01-01"
	Limit         int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	qRunes := []rune(strings.ToLower(query))

	runePos := -1
	if len(lower) == len(runes) && len(qRunes) > 0 {
		runePos = indexRunes(lower, qRunes)
	}
	if runePos < 0 {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func indexRunes(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Search finds turns matching opts.Query and keeps the best hit per chunk.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per chunk
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		k := fmt.Sprintf("%s#%d", r.TranscriptKey, r.ChunkID)
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.TranscriptKey != "" {
		conditions = append(conditions, "t.transcript_key = ?")
		args = append(args, opts.TranscriptKey)
	}
	if opts.Speaker != "" {
		conditions = append(conditions, "t.speaker = ?")
		args = append(args, opts.Speaker)
	}
	if opts.Since != "" {
		conditions = append(conditions, "t.ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"turns_fts MATCH ?"}
	args := []any{opts.Query}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			t.transcript_key,
			t.chunk_id,
			t.idx,
			t.ts,
			t.speaker,
			snippet(turns_fts, 0, '>>>','<<<', '...', 40) as snip,
			bm25(turns_fts) as rank
		FROM turns_fts
		JOIN turns t ON turns_fts.rowid = t.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	// LIKE match for CJK substring search
	conditions := []string{"t.content LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT t.transcript_key, t.chunk_id, t.idx, t.ts, t.speaker, t.content
		FROM turns t
		WHERE %s
		ORDER BY t.ts DESC, t.idx DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var content string
		if err := rows.Scan(&r.TranscriptKey, &r.ChunkID, &r.TurnIdx, &r.Ts, &r.Speaker, &content); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(content, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.TranscriptKey, &r.ChunkID, &r.TurnIdx, &r.Ts, &r.Speaker, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns the transcript's chunks as results in chunk order, for
// browsing without a query. filter narrows by speaker or content substring.
func ListAll(db *index.DB, key, filter string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1000
	}

	conditions := []string{"1 = 1"}
	var args []any
	if key != "" {
		conditions = append(conditions, "c.transcript_key = ?")
		args = append(args, key)
	}
	if filter != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM turns t
			WHERE t.transcript_key = c.transcript_key
			  AND t.idx BETWEEN c.start_idx AND c.end_idx
			  AND (t.speaker LIKE ? OR t.content LIKE ?))`)
		args = append(args, "%"+filter+"%", "%"+filter+"%")
	}

	query := fmt.Sprintf(`
		SELECT c.transcript_key, c.chunk_id, c.start_idx, c.first_ts,
			COALESCE((SELECT t.speaker || ': ' || t.content FROM turns t
				WHERE t.transcript_key = c.transcript_key AND t.idx = c.start_idx), '')
		FROM chunks c
		WHERE %s
		ORDER BY c.transcript_key, c.chunk_id
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var first string
		if err := rows.Scan(&r.TranscriptKey, &r.ChunkID, &r.TurnIdx, &r.Ts, &first); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(first, filter, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}
