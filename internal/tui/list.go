package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
)

// linesPerItem is the number of terminal lines each chunk occupies.
const linesPerItem = 2

// renderList renders the left panel: chunk list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No chunks")
	}

	var lines []string
	for i, it := range m.items {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItemLines(it, width, i == m.cursor)...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// statusBadge is the short record state shown next to a chunk.
func statusBadge(s Status) string {
	switch {
	case s.Missing:
		return styleStatusMissing.Render("missing")
	case !s.Checked:
		return ""
	case len(s.Violations) == 0:
		return styleStatusOK.Render("ok")
	}
	return styleStatusBad.Render(fmt.Sprintf("%d issues", len(s.Violations)))
}

// formatItemLines formats a chunk as two lines:
//
//	line 1: [>] ch_0001  #1-10  05-01 09:00-09:45  status
//	line 2:    snippet (dimmed)
func formatItemLines(it item, width int, selected bool) []string {
	r := it.result
	stem := styleListStem.Render(chunk.Stem(r.ChunkID))

	span, when := "", shortDate(r.Ts)
	if c := it.chunk; c != nil {
		span = fmt.Sprintf("#%d-%d", c.StartIdx, c.EndIdx)
		when = shortDate(c.FirstTs)
		if end := shortTime(c.LastTs); end != "" && end != shortTime(c.FirstTs) {
			when += "-" + end
		}
	}

	line1 := fmt.Sprintf("%s %s %s %s", stem, span, when, statusBadge(it.status))
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	// Line 2: snippet (dimmed, indented)
	snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := max(width-4, 0) // indent
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(snippet)

	return []string{line1, line2}
}

// shortDate turns "2024-05-01 09:00:00" into "05-01 09:00".
func shortDate(ts string) string {
	if len(ts) < 16 {
		return ts
	}
	return ts[5:16]
}

// shortTime turns "2024-05-01 09:00:00" into "09:00".
func shortTime(ts string) string {
	if len(ts) < 16 {
		return ""
	}
	return ts[11:16]
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
