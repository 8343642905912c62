package chunk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatmem/internal/parse"
)

func sampleTurns() []parse.Turn {
	return []parse.Turn{
		{Index: 3, Timestamp: "2024-01-01 10:00:00", Speaker: "Alice", Content: "hello\nworld"},
		{Index: 4, Timestamp: "2024-01-01 10:00:05", Speaker: "Bob", Content: ""},
		{Index: 5, Timestamp: "2024-01-01 10:01:00", Speaker: "Alice", Content: "bye"},
	}
}

func TestRender(t *testing.T) {
	got := Render(2, sampleTurns())
	want := strings.Join([]string{
		"# chunk_id: ch_0002",
		"# turns_range: 3..5",
		"# turns_count: 3",
		"",
		"[2024-01-01 10:00:00] Alice:",
		"hello",
		"world",
		"",
		"[2024-01-01 10:00:05] Bob:",
		"(empty)",
		"",
		"[2024-01-01 10:01:00] Alice:",
		"bye",
		"",
	}, "\n")
	if got != want {
		t.Errorf("Render mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestTurnLine(t *testing.T) {
	turns := sampleTurns()
	lines := strings.Split(Render(2, turns), "\n")

	for _, turn := range turns {
		n := TurnLine(turns, turn.Index)
		if n <= 0 || n > len(lines) {
			t.Fatalf("turn %d: line %d out of range", turn.Index, n)
		}
		if !strings.HasPrefix(lines[n-1], "["+turn.Timestamp+"] "+turn.Speaker) {
			t.Errorf("turn %d: line %d = %q", turn.Index, n, lines[n-1])
		}
	}
	if TurnLine(turns, 99) != 0 {
		t.Error("expected 0 for a turn outside the chunk")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	turns := sampleTurns()

	path, err := WriteFile(dir, Range{ID: 2, Start: 2, End: 5}, turns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "ch_0002.txt" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != Render(2, turns) {
		t.Error("file content differs from Render output")
	}

	_, err = WriteFile(dir, Range{ID: 3, Start: 0, End: 1}, turns)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for mismatched range, got %v", err)
	}
}
