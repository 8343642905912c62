package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/render"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	transcriptKey string
	chunkID       int
	content       string
	hitLine       int
	err           error
}

// loadPreviewCmd returns a tea.Cmd that renders the chunk preview async.
// The matched turn is marked only while a query is active.
func loadPreviewCmd(db *index.DB, it item, query string, width int) tea.Cmd {
	r := it.result
	opts := render.Options{
		Width:         width,
		Query:         query,
		Violations:    it.status.Violations,
		RecordChecked: it.status.Checked,
		RecordMissing: it.status.Missing,
	}
	if query != "" {
		opts.HitTurn = r.TurnIdx
	}
	return func() tea.Msg {
		content, hitLine, err := render.RenderChunk(db, r.TranscriptKey, r.ChunkID, opts)
		return previewRenderedMsg{
			transcriptKey: r.TranscriptKey,
			chunkID:       r.ChunkID,
			content:       content,
			hitLine:       hitLine,
			err:           err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
