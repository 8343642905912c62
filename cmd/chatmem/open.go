package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/open"
)

func openCmd() *cobra.Command {
	var text bool
	var turn int

	cmd := &cobra.Command{
		Use:   "open <chunk-id>",
		Short: "Open a chunk's record (or chunk text) in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChunkID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			t := open.Target{
				ChunksDir:   cfg.ChunksDir,
				ChaptersDir: cfg.ChaptersDir,
				ChunkID:     id,
				Text:        text,
				Turn:        turn,
			}

			// without an index the configured directories are used
			if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
				return open.OpenChunk(nil, "", t)
			}
			db, err := openIndex(cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenChunk(db, index.TranscriptKey(cfg.Input), t)
		},
	}

	cmd.Flags().BoolVar(&text, "chunk", false, "Open the chunk text file instead of the record")
	cmd.Flags().IntVar(&turn, "turn", 0, "Turn index to jump to (with --chunk)")

	return cmd
}
