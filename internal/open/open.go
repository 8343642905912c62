package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/parse"
	"github.com/Zuo-Peng/chatmem/internal/record"
)

// Target selects which file of a chunk to open.
type Target struct {
	ChunksDir   string
	ChaptersDir string
	ChunkID     int
	Text        bool // open the chunk text instead of the record
	Turn        int  // turn index to jump to in the chunk text, 0 = top
}

// Resolve finds the file and 1-based line for t. Indexed paths win over
// the configured directories; jumping to a turn needs the index.
func Resolve(db *index.DB, key string, t Target) (string, int, error) {
	path := filepath.Join(t.ChaptersDir, record.FileName(t.ChunkID))
	if t.Text {
		path = filepath.Join(t.ChunksDir, chunk.TextName(t.ChunkID))
	}
	line := 1

	if db != nil && key != "" {
		c, err := db.GetChunk(key, t.ChunkID)
		if err != nil {
			return "", 0, fmt.Errorf("get chunk: %w", err)
		}
		if c != nil {
			path = c.RecordPath
			if t.Text {
				path = c.ChunkPath
			}
			if t.Text && t.Turn > 0 {
				rows, err := db.GetChunkTurns(key, t.ChunkID)
				if err != nil {
					return "", 0, fmt.Errorf("get turns: %w", err)
				}
				if n := chunk.TurnLine(toTurns(rows), t.Turn); n > 0 {
					line = n
				}
			}
		}
	}

	if _, err := os.Stat(path); err != nil {
		return "", 0, fmt.Errorf("file not found: %s", path)
	}
	return path, line, nil
}

func toTurns(rows []index.TurnRow) []parse.Turn {
	turns := make([]parse.Turn, len(rows))
	for i, r := range rows {
		turns[i] = parse.Turn{Index: r.Idx, Timestamp: r.Ts, Speaker: r.Speaker, Content: r.Content}
	}
	return turns
}

// OpenChunk resolves t and opens it in $EDITOR (less by default).
func OpenChunk(db *index.DB, key string, t Target) error {
	path, line, err := Resolve(db, key, t)
	if err != nil {
		return err
	}
	return openInEditor(Editor(), path, line)
}

func Editor() string {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return editor
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
