package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// turnStartRe matches "[2024-01-02 15:04:05] Speaker: inline content".
var turnStartRe = regexp.MustCompile(`^\[(20\d{2}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]\s*(.+?):\s*(.*)$`)

// parser accumulates lines into turns. Lines before the first turn-start
// marker are dropped.
type parser struct {
	turns []Turn
	open  bool
	ts    string
	who   string
	lines []string
}

func (p *parser) feed(line string) {
	m := turnStartRe.FindStringSubmatch(line)
	if m == nil {
		if p.open {
			p.lines = append(p.lines, line)
		}
		return
	}

	p.close()
	p.open = true
	p.ts = m[1]
	p.who = strings.TrimSpace(m[2])
	p.lines = p.lines[:0]
	if m[3] != "" {
		p.lines = append(p.lines, m[3])
	}
}

func (p *parser) close() {
	if !p.open {
		return
	}
	p.turns = append(p.turns, Turn{
		Index:     len(p.turns) + 1,
		Timestamp: p.ts,
		Speaker:   p.who,
		Content:   strings.TrimSpace(strings.Join(p.lines, "\n")),
	})
	p.open = false
}

func (p *parser) finish() []Turn {
	p.close()
	return p.turns
}

// ParseTurns splits a fully materialized transcript into turns.
func ParseTurns(text string) []Turn {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var p parser
	for _, line := range strings.Split(text, "\n") {
		p.feed(strings.TrimSuffix(line, "\r"))
	}
	return p.finish()
}

// Parse reads r line by line and returns its turns. Invalid UTF-8 is
// dropped rather than rejected.
func Parse(r io.Reader) ([]Turn, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var p parser
	for scanner.Scan() {
		p.feed(strings.ToValidUTF8(scanner.Text(), ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return p.finish(), nil
}

// ParseFile opens path and parses it as a chat transcript.
func ParseFile(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
