package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/search"
	"github.com/Zuo-Peng/chatmem/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var speaker, since string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed turns",
		Long: `Search indexed turns using FTS5 (substring match for CJK queries).
Opens the browser when stdout is a terminal. Otherwise prints TSV:
  chunkId, turn, timestamp, speaker, chunk, snippet

Example fzf binding:
  chatmem search "$q" | fzf --ansi --delimiter='\t' \
    --preview 'chatmem preview {1} --turn {2} --query {q}' \
    --bind 'enter:execute(chatmem open {1})'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := openIndex(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{
				Speaker: speaker,
				Since:   since,
				Limit:   limit,
			}
			if !all {
				opts.TranscriptKey = index.TranscriptKey(cfg.Input)
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(tui.Config{
					DB:            db,
					TranscriptKey: opts.TranscriptKey,
					Search:        opts,
					Status:        recordStatus(cfg.Schema),
				}, args[0])
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				snippet = colorizeSnippet(snippet)
				// first two fields (chunkID, turn) stay plain for fzf {1} {2}
				fmt.Printf("%d\t%d\t%s%s%s\t%s%s%s\t%s\t%s\n",
					r.ChunkID,
					r.TurnIdx,
					sColorDim, r.Ts, sColorReset,
					sColorBlue, r.Speaker, sColorReset,
					chunk.Stem(r.ChunkID),
					snippet,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "", "Filter by speaker name")
	cmd.Flags().StringVar(&since, "since", "", "Filter turns since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&all, "all", false, "Search every indexed transcript, not only the configured one")

	return cmd
}
