package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/index"
	"github.com/Zuo-Peng/chatmem/internal/render"
)

// parseChunkID accepts "3", "0003" or "ch_0003".
func parseChunkID(arg string) (int, error) {
	s := strings.TrimPrefix(arg, "ch_")
	s = strings.TrimSuffix(strings.TrimSuffix(s, ".txt"), ".yaml")
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid chunk id: %q", arg)
	}
	return id, nil
}

func previewCmd() *cobra.Command {
	var turn, width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <chunk-id>",
		Short: "Print a chunk's turns and its record status",
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

			db, err := openIndex(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			key := index.TranscriptKey(cfg.Input)
			c, err := db.GetChunk(key, id)
			if err != nil {
				return err
			}
			opts := render.Options{HitTurn: turn, Width: width, Query: query}
			if c != nil {
				st := recordStatus(cfg.Schema)(c.RecordPath)
				opts.RecordChecked = st.Checked
				opts.RecordMissing = st.Missing
				opts.Violations = st.Violations
			}

			out, _, err := render.RenderChunk(db, key, id, opts)
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&turn, "turn", 0, "Turn index to mark")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap lines at this width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
