package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wilhg/toolsrv/pkg/config"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toolsrv",
		Short: "Schema-validated tool server",
		Long:  "toolsrv exposes file, task and documentation tools over MCP (stdio or streamable HTTP).",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to toolsrv.yaml (default: ./toolsrv.yaml if present)")
	root.PersistentFlags().String("workspace", "", "Root directory for the file tools")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("journal", "", "Call journal DSN (sqlite:<dsn> or postgres://...)")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("toolsrv %s (commit=%s, date=%s)\n", version, commit, date))

	root.AddCommand(newServeCmd())
	root.AddCommand(newToolsCmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newJournalCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig layers command-line flags over config.Load and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Server.Version == "dev" {
		cfg.Server.Version = version
	}
	if v, _ := cmd.Flags().GetString("workspace"); v != "" {
		cfg.Workspace.Root = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal.DSN, _ = cmd.Flags().GetString("journal")
	}
	if f := cmd.Flags().Lookup("transport"); f != nil && f.Changed {
		cfg.Server.Transport = f.Value.String()
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.Server.Addr = f.Value.String()
	}
	if f := cmd.Flags().Lookup("telemetry"); f != nil && f.Changed {
		cfg.Telemetry.Exporter = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger writes JSON to w. Stdout is reserved for the stdio transport and command output.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
