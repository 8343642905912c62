package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/split"
)

func splitCmd() *cobra.Command {
	var input string
	var turns, overlap int
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the transcript into chunk files and create record skeletons",
		Long: `Parses the transcript into turns, writes one chunk text file per group of
turns and a record skeleton per chunk. Existing records are never
overwritten, so split can be re-run safely after editing records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				cfg.Input = input
			}
			if cmd.Flags().Changed("turns") {
				cfg.TurnsPerChunk = turns
			}
			if cmd.Flags().Changed("overlap") {
				cfg.OverlapTurns = overlap
			}

			res, err := split.Run(split.Options{
				InputPath:     cfg.Input,
				ChunksDir:     cfg.ChunksDir,
				ChaptersDir:   cfg.ChaptersDir,
				SchemaPath:    cfg.Schema,
				TurnsPerChunk: cfg.TurnsPerChunk,
				Overlap:       cfg.OverlapTurns,
			}, slog.Default())
			if err != nil {
				return err
			}
			res.WriteSummary(os.Stdout, cfg.ChunksDir, cfg.ChaptersDir)

			if noIndex || !cfg.Index {
				return nil
			}
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			t := index.Transcript{
				Path:          res.InputPath,
				Turns:         res.Turns,
				ChunksDir:     cfg.ChunksDir,
				ChaptersDir:   cfg.ChaptersDir,
				TurnsPerChunk: cfg.TurnsPerChunk,
				OverlapTurns:  cfg.OverlapTurns,
			}
			for _, c := range res.Chunks {
				t.Ranges = append(t.Ranges, c.Range)
			}
			// the split itself succeeded, a stale index is not fatal
			if err := index.Record(db, t); err != nil {
				slog.Warn("index update failed", "db", cfg.DBPath, "err", err)
				return nil
			}
			slog.Debug("index updated", "db", cfg.DBPath, "chunks", len(t.Ranges))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript file (default from config)")
	cmd.Flags().IntVar(&turns, "turns", 0, "Turns per chunk (default from config)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Turns shared between consecutive chunks")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Do not update the search index")

	return cmd
}
