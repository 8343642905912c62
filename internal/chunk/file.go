package chunk

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/chatmem/internal/fsx"
	"github.com/Zuo-Peng/chatmem/internal/parse"
)

const (
	TextExt      = ".txt"
	emptyContent = "(empty)"
	headerLines  = 4
)

// TextName is the chunk text file name for a chunk id.
func TextName(id int) string { return Stem(id) + TextExt }

// Render formats a chunk as a short header followed by each turn.
func Render(id int, turns []parse.Turn) string {
	lines := []string{
		"# chunk_id: " + Stem(id),
		fmt.Sprintf("# turns_range: %d..%d", turns[0].Index, turns[len(turns)-1].Index),
		fmt.Sprintf("# turns_count: %d", len(turns)),
		"",
	}
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("[%s] %s:", t.Timestamp, t.Speaker))
		if t.Content != "" {
			lines = append(lines, t.Content)
		} else {
			lines = append(lines, emptyContent)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// TurnLine returns the 1-based line of turn idx's header in Render's
// output, or 0 if the chunk does not contain it.
func TurnLine(turns []parse.Turn, idx int) int {
	line := headerLines + 1
	for _, t := range turns {
		if t.Index == idx {
			return line
		}
		n := 1
		if t.Content != "" {
			n = strings.Count(t.Content, "\n") + 1
		}
		line += 1 + n + 1
	}
	return 0
}

// WriteFile renders a chunk into dir, replacing any previous version.
func WriteFile(dir string, r Range, turns []parse.Turn) (string, error) {
	if r.Len() == 0 || len(turns) != r.Len() {
		return "", fmt.Errorf("%w: chunk %s has %d turns for range [%d,%d)", ErrInvalidArgument, r.Stem(), len(turns), r.Start, r.End)
	}
	path := filepath.Join(dir, TextName(r.ID))
	if err := fsx.WriteFileAtomic(path, []byte(Render(r.ID, turns)), fsx.PermFile); err != nil {
		return "", err
	}
	return path, nil
}
