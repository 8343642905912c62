package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatmem/internal/verify"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every record against the schema and pair records with chunks",
		Long: `Validates all record files in the chapters directory against the schema
and reports chunks without a record and records without a chunk.

Exit status: 0 when everything passes, 1 when problems were found,
2 when a required directory or the schema file is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rep, err := verify.Run(verify.Options{
				ChunksDir:   cfg.ChunksDir,
				ChaptersDir: cfg.ChaptersDir,
				SchemaPath:  cfg.Schema,
			}, slog.Default())
			if err != nil {
				return err
			}

			rep.Write(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
			return rep.Err()
		},
	}
}
