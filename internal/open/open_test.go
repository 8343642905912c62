package open

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/parse"
)

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   string
	}{
		{"vim", "vim +7 f.txt"},
		{"/usr/bin/nvim", "/usr/bin/nvim +7 f.txt"},
		{"code", "code --goto f.txt:7"},
		{"less", "less +7 f.txt"},
		{"nano", "nano f.txt"},
	}
	for _, tc := range tests {
		cmd := editorCommand(tc.editor, "f.txt", 7)
		args := append([]string{tc.editor}, cmd.Args[1:]...)
		if got := strings.Join(args, " "); got != tc.want {
			t.Errorf("editor %s: got %q, want %q", tc.editor, got, tc.want)
		}
	}
}

func TestEditorDefault(t *testing.T) {
	t.Setenv("EDITOR", "")
	if Editor() != "less" {
		t.Errorf("default editor = %s", Editor())
	}
	t.Setenv("EDITOR", "vim")
	if Editor() != "vim" {
		t.Errorf("editor = %s", Editor())
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	chunksDir := filepath.Join(dir, "chunks")
	chaptersDir := filepath.Join(dir, "chapters")
	for _, d := range []string{chunksDir, chaptersDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	input := filepath.Join(dir, "raw_chat.txt")
	content := "[2024-06-01 08:00:00] A: one\ntwo\n[2024-06-01 08:01:00] B: three\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	turns := parse.ParseTurns(content)
	ranges, _ := chunk.Indices(len(turns), 10, 0)
	if _, err := chunk.WriteFile(chunksDir, ranges[0], turns); err != nil {
		t.Fatal(err)
	}

	db, err := index.OpenDB(filepath.Join(dir, "t.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := index.IndexFile(db, index.Options{InputPath: input, ChunksDir: chunksDir, ChaptersDir: chaptersDir, TurnsPerChunk: 10}, nil); err != nil {
		t.Fatal(err)
	}
	key := index.TranscriptKey(input)

	path, line, err := Resolve(db, key, Target{ChunkID: 1, Text: true, Turn: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "ch_0001.txt" {
		t.Errorf("path = %s", path)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(string(data), "\n")
	if line < 1 || lines[line-1] != "[2024-06-01 08:01:00] B:" {
		t.Errorf("line %d = %q", line, lines[max(line-1, 0)])
	}

	// the record has not been written yet
	if _, _, err := Resolve(db, key, Target{ChunkID: 1}); err == nil {
		t.Error("expected error for missing record")
	}

	// without an index the configured directories are used
	path, line, err = Resolve(nil, "", Target{ChunksDir: chunksDir, ChunkID: 1, Text: true, Turn: 2})
	if err != nil || line != 1 || path != filepath.Join(chunksDir, "ch_0001.txt") {
		t.Errorf("unindexed resolve = %s, %d, %v", path, line, err)
	}
}
