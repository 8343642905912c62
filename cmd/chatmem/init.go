package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/fsx"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example schema file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			created, err := fsx.CreateIfAbsent(cfg.Schema, schema.Example, fsx.PermFile)
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			if !created {
				fmt.Printf("Schema already exists, left unchanged: %s\n", cfg.Schema)
				return nil
			}
			fmt.Printf("Wrote example schema: %s\n", cfg.Schema)
			return nil
		},
	}
}
