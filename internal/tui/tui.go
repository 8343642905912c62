package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

// Status is the validation state of a chunk's record.
type Status struct {
	Checked    bool
	Missing    bool
	Violations []string
}

// StatusFunc reports the record status for a record file path.
type StatusFunc func(recordPath string) Status

// Config wires the browser to the index.
type Config struct {
	DB            *index.DB
	TranscriptKey string // "" = all transcripts
	Search        search.Options
	Status        StatusFunc
}

// message types

type item struct {
	result search.Result
	chunk  *index.ChunkRow
	status Status
}

type searchResultMsg struct {
	query string
	items []item
	err   error
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	cfg         Config
	mode        tuiMode
	query       string
	items       []item
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // "transcriptKey:chunkID" to avoid duplicate renders
	width       int
	height      int
	ready       bool
	quitting    bool
	chosen      *item
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.SetValue(value)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	return ti
}

func initialModel(cfg Config, mode tuiMode, query string) model {
	placeholder := "Search..."
	if mode == modeList {
		placeholder = "Filter..."
	}
	if cfg.Search.TranscriptKey == "" {
		cfg.Search.TranscriptKey = cfg.TranscriptKey
	}
	return model{
		cfg:         cfg,
		mode:        mode,
		query:       query,
		filterInput: newInput(placeholder, query),
		preview:     viewport.New(0, 0),
	}
}

// Run starts the search TUI and blocks until it exits. Choosing a result
// copies its record path to the clipboard.
func Run(cfg Config, query string) error {
	return run(initialModel(cfg, modeSearch, query))
}

// RunList starts the browser over every chunk of the transcript.
func RunList(cfg Config) error {
	return run(initialModel(cfg, modeList, ""))
}

func run(m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.chosen != nil && fm.chosen.chunk != nil {
		copyRecordPath(fm.chosen.chunk.RecordPath)
	}
	return nil
}

// copyRecordPath puts the record path on the clipboard, or prints it when
// no clipboard is available.
func copyRecordPath(path string) {
	if err := clipboard.WriteAll(path); err != nil {
		fmt.Printf("%s\n", path)
		return
	}
	fmt.Printf("Copied to clipboard: %s\n", path)
}

// Init triggers the initial search/list load.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList {
		cmds = append(cmds, m.doListAll(""))
	} else if m.query != "" {
		cmds = append(cmds, m.doSearch(m.query))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			if len(m.items) > 0 && m.cursor < len(m.items) {
				it := m.items[m.cursor]
				m.chosen = &it
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.First), key.Matches(msg, keys.Last):
			target := 0
			if key.Matches(msg, keys.Last) {
				target = max(len(m.items)-1, 0)
			}
			if target != m.cursor && len(m.items) > 0 {
				m.cursor = target
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Prev):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Next):
			if m.cursor < len(m.items)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// Pass remaining keys to text input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if newQuery := m.filterInput.Value(); newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, m.scheduleDebouncedSearch(newQuery))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.items) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			visibleItems := m.panelHeight() / linesPerItem
			if m.listOffset < max(len(m.items)-visibleItems, 0) {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.items) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}

		return m, nil

	case debounceTickMsg:
		// Only fire search if query hasn't changed since debounce was scheduled
		if msg.query == m.query {
			if m.mode == modeList {
				cmds = append(cmds, m.doListAll(msg.query))
			} else {
				cmds = append(cmds, m.doSearch(msg.query))
			}
		}
		return m, tea.Batch(cmds...)

	case searchResultMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if msg.err != nil {
			m.items = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.items = msg.items
		if len(m.items) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		key := previewCacheKey(msg.transcriptKey, msg.chunkID)
		if key == m.previewKey {
			return m, nil
		}
		if len(m.items) > 0 && m.cursor < len(m.items) {
			r := m.items[m.cursor].result
			if key != previewCacheKey(r.TranscriptKey, r.ChunkID) {
				return m, nil // stale preview
			}
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			if msg.hitLine > 0 {
				m.preview.SetYOffset(msg.hitLine)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewKey = key
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	// 60% for preview, minus border padding
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	bad := 0
	for _, it := range m.items {
		if it.status.Missing || len(it.status.Violations) > 0 {
			bad++
		}
	}
	parts := []string{
		fmt.Sprintf("%d chunks", len(m.items)),
		fmt.Sprintf("%d need work", bad),
	}
	for _, b := range keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) doSearch(query string) tea.Cmd {
	cfg := m.cfg
	opts := cfg.Search
	opts.Query = query
	return func() tea.Msg {
		if query == "" {
			return searchResultMsg{query: query}
		}
		results, err := search.Search(cfg.DB, opts)
		if err != nil {
			return searchResultMsg{query: query, err: err}
		}
		items, err := cfg.items(results)
		return searchResultMsg{query: query, items: items, err: err}
	}
}

func (m model) doListAll(filter string) tea.Cmd {
	cfg := m.cfg
	opts := cfg.Search
	opts.Query = filter
	return func() tea.Msg {
		var results []search.Result
		var err error
		if filter == "" {
			results, err = search.ListAll(cfg.DB, opts.TranscriptKey, "", opts.Limit)
		} else {
			// When there's input, do full-text search across turn content
			results, err = search.Search(cfg.DB, opts)
		}
		if err != nil {
			return searchResultMsg{query: filter, err: err}
		}
		items, err := cfg.items(results)
		return searchResultMsg{query: filter, items: items, err: err}
	}
}

// items attaches chunk rows and record status to results.
func (c Config) items(results []search.Result) ([]item, error) {
	out := make([]item, 0, len(results))
	for _, r := range results {
		row, err := c.DB.GetChunk(r.TranscriptKey, r.ChunkID)
		if err != nil {
			return nil, err
		}
		it := item{result: r, chunk: row}
		if row != nil && c.Status != nil {
			it.status = c.Status(row.RecordPath)
		}
		out = append(out, it)
	}
	return out, nil
}

func (m model) scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if len(m.items) == 0 || m.cursor >= len(m.items) {
		return nil
	}
	it := m.items[m.cursor]
	if previewCacheKey(it.result.TranscriptKey, it.result.ChunkID) == m.previewKey {
		return nil // already showing this preview
	}
	return loadPreviewCmd(m.cfg.DB, it, m.query, m.previewWidth())
}

func previewCacheKey(transcriptKey string, chunkID int) string {
	return fmt.Sprintf("%s:%d", transcriptKey, chunkID)
}
