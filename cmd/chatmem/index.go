package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/config"
	"github.com/Zuo-Peng/chatmem/internal/index"
)

func indexCmd() *cobra.Command {
	var input string
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the transcript's turns and chunks for search",
		Long: `Parses the transcript and records its chunks and turns in the index
without writing any chunk or record files. Unchanged transcripts are
skipped unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				cfg.Input = input
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Indexing %s\n", cfg.Input)
			stats, err := index.IndexFile(db, indexOptions(cfg, force), slog.Default())
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Transcript file (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-index even if the transcript is unchanged")

	return cmd
}

func indexOptions(cfg *config.Config, force bool) index.Options {
	return index.Options{
		InputPath:     cfg.Input,
		ChunksDir:     cfg.ChunksDir,
		ChaptersDir:   cfg.ChaptersDir,
		TurnsPerChunk: cfg.TurnsPerChunk,
		OverlapTurns:  cfg.OverlapTurns,
		Force:         force,
	}
}

// openIndex opens the index and, when refresh is set, brings the
// configured transcript up to date first. A missing transcript only
// skips the refresh.
func openIndex(cfg *config.Config, refresh bool) (*index.DB, error) {
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if !refresh {
		return db, nil
	}
	if _, err := os.Stat(cfg.Input); errors.Is(err, os.ErrNotExist) {
		slog.Debug("transcript not found, index not refreshed", "path", cfg.Input)
		return db, nil
	}
	if _, err := index.IndexFile(db, indexOptions(cfg, false), slog.Default()); err != nil {
		slog.Warn("index refresh failed", "path", cfg.Input, "err", err)
	}
	return db, nil
}
