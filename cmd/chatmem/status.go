package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/Zuo-Peng/chatmem/internal/schema"
	"github.com/Zuo-Peng/chatmem/internal/tui"
	"github.com/Zuo-Peng/chatmem/internal/verify"
)

// recordStatus returns a checker for record files. Without a loadable
// schema records are reported as unchecked.
func recordStatus(schemaPath string) tui.StatusFunc {
	s, err := schema.Load(schemaPath)
	if err != nil {
		slog.Debug("record status unavailable", "schema", schemaPath, "err", err)
	}
	return func(recordPath string) tui.Status {
		if _, err := os.Stat(recordPath); errors.Is(err, os.ErrNotExist) {
			return tui.Status{Missing: true}
		}
		if s == nil {
			return tui.Status{}
		}
		res := verify.CheckFile(s, recordPath)
		return tui.Status{Checked: true, Violations: res.Violations}
	}
}
