package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatmem/internal/config"
	"github.com/Zuo-Peng/chatmem/internal/verify"
)

var version = "dev"

// flags shared by every subcommand
var (
	configPath  string
	logLevel    string
	chunksDir   string
	chaptersDir string
	schemaPath  string
	dbPath      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chatmem",
		Short:         "chatmem - split chat transcripts into chunks and check their memory records",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./"+config.DefaultFile+")")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&chunksDir, "chunks-dir", "", "Directory for chunk text files")
	pf.StringVar(&chaptersDir, "chapters-dir", "", "Directory for record files")
	pf.StringVar(&schemaPath, "schema", "", "Schema file")
	pf.StringVar(&dbPath, "db", "", "Index database path")

	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(doctorCmd())

	err := rootCmd.Execute()
	// verify has already printed its report
	if err != nil && !errors.Is(err, verify.ErrProblems) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, verify.ErrMissing):
		return 2
	default:
		return 1
	}
}

// loadConfig reads the layered configuration, applies the global flags on
// top and configures logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("chunks-dir") {
		cfg.ChunksDir = chunksDir
	}
	if flags.Changed("chapters-dir") {
		cfg.ChaptersDir = chaptersDir
	}
	if flags.Changed("schema") {
		cfg.Schema = schemaPath
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}

	setupLogging(cfg.LogLevel)
	if cfg.Source != "" {
		slog.Debug("config loaded", "path", cfg.Source)
	}
	return cfg, nil
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
}
