package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/search"
	"github.com/Zuo-Peng/chatmem/internal/tui"
)

func browseCmd() *cobra.Command {
	var speaker, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse all chunks with their record status",
		Long: `Opens a TUI panel listing every chunk of the transcript in order with its
turn range, time range and record status. Type to search turn content.
Enter copies the selected chunk's record path to the clipboard.`,
		Args: cobra.NoArgs,
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

			key := index.TranscriptKey(cfg.Input)
			return tui.RunList(tui.Config{
				DB:            db,
				TranscriptKey: key,
				Search: search.Options{
					TranscriptKey: key,
					Speaker:       speaker,
					Since:         since,
					Limit:         limit,
				},
				Status: recordStatus(cfg.Schema),
			})
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "", "Filter searches by speaker name")
	cmd.Flags().StringVar(&since, "since", "", "Filter searches to turns since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
