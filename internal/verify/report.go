package verify

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatmem/internal/record"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Write prints the report. When styled is false the output is plain
// text suitable for logs and pipes.
func (r *Report) Write(w io.Writer, styled bool) {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintf(w, "Chunks: %d\n", r.ChunkCount)
	fmt.Fprintf(w, "YAMLs : %d\n", r.RecordCount)
	if r.ChunkCount != r.RecordCount {
		fmt.Fprintln(w, paint(styleDim, fmt.Sprintf("Count mismatch: %d chunk(s) vs %d record(s)", r.ChunkCount, r.RecordCount)))
	}

	if len(r.Missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(styleHeading, "Missing YAML for chunks:"))
		for _, stem := range r.Missing {
			fmt.Fprintf(w, "  - %s\n", paint(styleBad, stem+record.Ext))
		}
	}

	if len(r.Orphans) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(styleHeading, "YAML exists without chunk:"))
		for _, stem := range r.Orphans {
			fmt.Fprintf(w, "  - %s\n", stem+record.Ext)
		}
	}

	invalid := r.Invalid()
	fmt.Fprintln(w)
	if len(invalid) > 0 {
		fmt.Fprintln(w, paint(styleHeading, "Invalid / incomplete YAML files:"))
		for _, res := range invalid {
			fmt.Fprintf(w, "\n- %s\n", filepath.ToSlash(res.Path))
			for _, v := range res.Violations {
				fmt.Fprintf(w, "    * %s\n", paint(styleBad, v))
			}
		}
	} else {
		fmt.Fprintln(w, paint(styleOK, "All YAML files passed validation checks."))
	}

	summary := fmt.Sprintf("Summary: problems=%d (missing_yaml=%d, bad_yaml=%d)", r.Problems(), len(r.Missing), len(invalid))
	if r.Problems() > 0 {
		summary = paint(styleBad, summary)
	} else {
		summary = paint(styleOK, summary)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
}
