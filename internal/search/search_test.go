package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatmem/internal/index"
)

const transcript = `[2024-06-01 08:00:00] Alice: the quarterly report is late
[2024-06-01 08:01:00] Bob: which report?
[2024-06-01 08:02:00] Alice: the quarterly one
[2024-06-02 09:00:00] Bob: 我来写报告
[2024-06-02 09:01:00] Alice: thanks Bob
`

func indexed(t *testing.T) (*index.DB, string) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "raw_chat.txt")
	if err := os.WriteFile(p, []byte(transcript), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := index.OpenDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	opts := index.Options{InputPath: p, ChunksDir: dir, ChaptersDir: dir, TurnsPerChunk: 2}
	if _, err := index.IndexFile(db, opts, nil); err != nil {
		t.Fatal(err)
	}
	return db, index.TranscriptKey(p)
}

func TestSearch_FTS(t *testing.T) {
	db, key := indexed(t)

	results, err := Search(db, Options{Query: "quarterly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (one per chunk), got %d", len(results))
	}
	for _, r := range results {
		if r.TranscriptKey != key {
			t.Errorf("key = %s", r.TranscriptKey)
		}
		if !strings.Contains(r.Snippet, ">>>quarterly<<<") {
			t.Errorf("snippet = %q", r.Snippet)
		}
	}

	results, err = Search(db, Options{Query: "report", Speaker: "Bob"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].TurnIdx != 2 || results[0].ChunkID != 1 {
		t.Errorf("speaker filter = %+v", results)
	}

	results, err = Search(db, Options{Query: "thanks", Since: "2024-06-02"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkID != 3 {
		t.Errorf("since filter = %+v", results)
	}

	results, err = Search(db, Options{Query: "quarterly", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("limit = %d results", len(results))
	}
}

func TestSearch_CJKFallback(t *testing.T) {
	db, _ := indexed(t)

	results, err := Search(db, Options{Query: "报告"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.TurnIdx != 4 || r.ChunkID != 2 || r.Speaker != "Bob" {
		t.Errorf("result = %+v", r)
	}
	if r.Snippet != "我来写>>>报告<<<" {
		t.Errorf("snippet = %q", r.Snippet)
	}
}

func TestListAll(t *testing.T) {
	db, key := indexed(t)

	all, err := ListAll(db, key, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(all))
	}
	if all[0].ChunkID != 1 || all[0].Ts != "2024-06-01 08:00:00" || !strings.HasPrefix(all[0].Snippet, "Alice: the quarterly") {
		t.Errorf("first = %+v", all[0])
	}

	filtered, err := ListAll(db, key, "thanks", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].ChunkID != 3 {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestMakeSnippet(t *testing.T) {
	tests := []struct {
		text, query string
		ctx         int
		want        string
	}{
		{"hello world", "world", 3, "...lo >>>world<<<"},
		{"Hello World again", "world", 20, "Hello >>>World<<< again"},
		{"abcdefghij", "zz", 2, "abcd..."},
		{"short", "zz", 10, "short"},
		{"前面的内容报告后面", "报告", 2, "...内容>>>报告<<<后面"},
	}
	for _, tc := range tests {
		if got := makeSnippet(tc.text, tc.query, tc.ctx); got != tc.want {
			t.Errorf("makeSnippet(%q, %q) = %q, want %q", tc.text, tc.query, got, tc.want)
		}
	}
}

func TestContainsCJK(t *testing.T) {
	if !containsCJK("abc报告") || containsCJK("report") {
		t.Error("containsCJK misclassified input")
	}
}
