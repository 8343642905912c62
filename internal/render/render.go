package render

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
	colorOK      = "\033[1;32m"
	colorBad     = "\033[1;31m"
)

// speakerColors are assigned to speakers by name hash so a speaker keeps
// its colour across chunks.
var speakerColors = []string{
	"\033[1;34m", // bold blue
	"\033[1;32m", // bold green
	"\033[1;35m", // bold magenta
	"\033[1;36m", // bold cyan
	"\033[1;33m", // bold yellow
}

type Options struct {
	HitTurn int    // turn index to mark, 0 = none
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting

	// Violations of the chunk's record; nil with RecordChecked set means
	// the record is valid.
	Violations    []string
	RecordChecked bool
	RecordMissing bool
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		t = strings.Trim(t, `"*()`)
		if t != "" && !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			if end > len(text) || strings.ToLower(text[pos:end]) != lower {
				// case folding changed byte lengths; stop rather than cut a rune
				break
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

func speakerColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return speakerColors[h.Sum32()%uint32(len(speakerColors))]
}

// RenderChunk renders an indexed chunk and returns the content and the
// 0-based line of the hit turn header (-1 if none).
func RenderChunk(db *index.DB, key string, chunkID int, opts Options) (string, int, error) {
	c, err := db.GetChunk(key, chunkID)
	if err != nil {
		return "", -1, fmt.Errorf("get chunk: %w", err)
	}
	if c == nil {
		return "", -1, fmt.Errorf("chunk not found: %s", chunk.Stem(chunkID))
	}

	turns, err := db.GetChunkTurns(key, chunkID)
	if err != nil {
		return "", -1, fmt.Errorf("get turns: %w", err)
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	wrapW := opts.Width

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, wrapW) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s  turns %d..%d (%d)  %s .. %s ---%s",
		colorDim, chunk.Stem(chunkID), c.StartIdx, c.EndIdx, c.TurnCount(), c.FirstTs, c.LastTs, colorReset))
	writeLine(colorDim + "record: " + c.RecordPath + colorReset)
	for _, l := range StatusLines(opts) {
		writeLine(l)
	}
	writeLine("")

	if len(turns) == 0 {
		writeLine("(empty chunk)")
		return b.String(), hitLine, nil
	}

	for _, t := range turns {
		if t.Idx == opts.HitTurn {
			hitLine = lineCount
			writeLine(fmt.Sprintf("%s>> [%s] %s <<%s", colorHit, t.Ts, t.Speaker, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s%s %s[%s] #%d%s", speakerColor(t.Speaker), t.Speaker, colorReset, colorDim, t.Ts, t.Idx, colorReset))
		}

		text := t.Content
		if text == "" {
			text = colorDim + "(empty)" + colorReset
		}
		text = highlightKeywords(text, opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("") // blank line after turn
	}

	return b.String(), hitLine, nil
}

// StatusLines describes the record state for display.
func StatusLines(opts Options) []string {
	switch {
	case opts.RecordMissing:
		return []string{colorBad + "record: missing" + colorReset}
	case !opts.RecordChecked:
		return nil
	case len(opts.Violations) == 0:
		return []string{colorOK + "record: valid" + colorReset}
	}
	lines := []string{fmt.Sprintf("%srecord: %d problem(s)%s", colorBad, len(opts.Violations), colorReset)}
	for _, v := range opts.Violations {
		lines = append(lines, "  * "+v)
	}
	return lines
}
