package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/scan"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify paths, schema, index and FTS5, and show stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Println("=== Config ===")
			if cfg.Source != "" {
				fmt.Printf("  File: %s\n", cfg.Source)
			} else {
				fmt.Println("  File: (defaults and environment)")
			}
			fmt.Printf("  Turns per chunk: %d, overlap: %d\n", cfg.TurnsPerChunk, cfg.OverlapTurns)

			fmt.Println("\n=== Paths ===")
			checkFile("Input", cfg.Input)
			checkDir("Chunks", cfg.ChunksDir)
			checkDir("Chapters", cfg.ChaptersDir)

			fmt.Println("\n=== Schema ===")
			fmt.Printf("  Path: %s\n", cfg.Schema)
			if s, err := schema.Load(cfg.Schema); err != nil {
				fmt.Printf("  Status: ERROR (%v)\n", err)
			} else {
				fmt.Printf("  Fields: %d, derived: %d\n", len(s.Fields), len(s.Derived))
			}

			fmt.Println("\n=== File Scan ===")
			pairing, err := scan.ScanDirs(cfg.ChunksDir, cfg.ChaptersDir)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Chunk files:  %d\n", len(pairing.Chunks))
				fmt.Printf("  Record files: %d\n", len(pairing.Records))
				fmt.Printf("  Missing records: %d, orphan records: %d\n",
					len(pairing.MissingRecords), len(pairing.OrphanRecords))
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatmem split' or 'chatmem index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			transcripts, err := db.TranscriptCount()
			if err != nil {
				return fmt.Errorf("count transcripts: %w", err)
			}
			chunks, err := db.ChunkCount()
			if err != nil {
				return fmt.Errorf("count chunks: %w", err)
			}
			turns, err := db.TurnCount()
			if err != nil {
				return fmt.Errorf("count turns: %w", err)
			}
			fmt.Printf("  Transcripts: %d\n", transcripts)
			fmt.Printf("  Chunks:      %d\n", chunks)
			fmt.Printf("  Turns:       %d\n", turns)

			if t, err := db.GetTranscript(index.TranscriptKey(cfg.Input)); err == nil && t != nil {
				fmt.Printf("  Current transcript: run %s, %d turns in %d chunks, indexed %s\n",
					t.RunID, t.TurnCount, t.ChunkCount, t.IndexedAt)
			}

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == turns {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (turns=%d, fts=%d)\n", turns, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkFile(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if info.IsDir() {
		fmt.Printf("  %s: %s (IS A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK, %d bytes)\n", name, path, info.Size())
	}
}
