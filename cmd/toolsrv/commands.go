package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wilhg/toolsrv/pkg/config"
	"github.com/wilhg/toolsrv/pkg/eval"
	"github.com/wilhg/toolsrv/pkg/fsops"
	"github.com/wilhg/toolsrv/pkg/mcpclient"
	"github.com/wilhg/toolsrv/pkg/mcpserver"
	toolotel "github.com/wilhg/toolsrv/pkg/otel"
	"github.com/wilhg/toolsrv/pkg/tasks"
	"github.com/wilhg/toolsrv/pkg/tool"
	"github.com/wilhg/toolsrv/pkg/tools"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("transport", config.TransportStdio, "Transport: stdio or http")
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().String("telemetry", "none", "Trace exporter: none, stdout or otlp")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := toolotel.Init(ctx, toolotel.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Server.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.WithoutCancel(ctx)) }()

	a, err := newApp(ctx, cfg, logger, tel)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcpserver.New(
		mcpserver.Implementation{Name: cfg.Server.Name, Version: cfg.Server.Version},
		a.disp,
		mcpserver.WithLogger(logger),
		mcpserver.WithMetricsHandler(toolotel.MetricsHandler(tel.Reader)),
	)
	if err != nil {
		return err
	}

	logger.Info("toolsrv starting",
		"transport", cfg.Server.Transport,
		"workspace", cfg.Workspace.Root,
		"tools", a.disp.Registry().Len(),
		"journal", a.journal != nil,
	)
	switch cfg.Server.Transport {
	case config.TransportHTTP:
		logger.Info("listening", "addr", cfg.Server.Addr)
		err = srv.ListenAndServe(ctx, cfg.Server.Addr)
	default:
		err = srv.Serve(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type toolView struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	InputSchema *tool.Schema `json:"inputSchema"`
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog with input schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := tools.NewRegistry(tasks.NewStore(), fsops.New(cfg.Workspace.Root))
			if err != nil {
				return err
			}
			descs := reg.List()
			out := make([]toolView, 0, len(descs))
			for _, d := range descs {
				out = append(out, toolView{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Dispatch one call in-process and print the result envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("args")
			a, err := newApp(cmd.Context(), cfg, newLogger(cfg.Log.Level, cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.disp.CallJSON(cmd.Context(), args[0], json.RawMessage(raw))
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.IsError {
				return fmt.Errorf("tool %s failed: %s", args[0], res.FirstText())
			}
			return nil
		},
	}
	cmd.Flags().String("args", "{}", "Tool arguments as a JSON object")
	return cmd
}

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <dir>",
		Short: "Replay scenario fixtures (*.json) against fresh dispatchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level, io.Discard)

			var scratch []string
			defer func() {
				for _, dir := range scratch {
					_ = os.RemoveAll(dir)
				}
			}()
			factory := func() (*tool.Dispatcher, error) {
				dir, err := os.MkdirTemp("", "toolsrv-eval-*")
				if err != nil {
					return nil, err
				}
				scratch = append(scratch, dir)
				reg, err := tools.NewRegistry(tasks.NewStore(), fsops.New(dir))
				if err != nil {
					return nil, err
				}
				return tool.NewDispatcher(reg, tool.WithLogger(logger)), nil
			}

			rep, err := eval.EvaluateScenarios(cmd.Context(), os.DirFS(args[0]), ".", factory)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Passed != rep.Total {
				return fmt.Errorf("%d of %d scenarios failed", rep.Total-rep.Passed, rep.Total)
			}
			return nil
		},
	}
}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [--http URL | -- command args...]",
		Short: "Connect to an MCP server, list its tools and optionally call one",
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, _ := cmd.Flags().GetString("http")
			callName, _ := cmd.Flags().GetString("call")
			raw, _ := cmd.Flags().GetString("args")

			var (
				cli mcpclient.Client
				err error
			)
			opt := mcpclient.WithClientInfo("toolsrv-probe", version)
			switch {
			case endpoint != "":
				cli, err = mcpclient.ConnectHTTP(cmd.Context(), endpoint, opt)
			case len(args) > 0:
				cli, err = mcpclient.ConnectCommand(cmd.Context(), args[0], args[1:], opt)
			default:
				return errors.New("probe needs --http or a server command after --")
			}
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer func() { _ = cli.Close() }()

			descs, err := cli.ListTools(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tools: %w", err)
			}
			if callName == "" {
				return writeJSON(cmd.OutOrStdout(), descs)
			}
			var callArgs map[string]any
			if err := json.Unmarshal([]byte(raw), &callArgs); err != nil {
				return fmt.Errorf("--args: %w", err)
			}
			res, err := cli.CallTool(cmd.Context(), callName, callArgs)
			if err != nil {
				return fmt.Errorf("call %s: %w", callName, err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("http", "", "Streamable HTTP endpoint, e.g. http://localhost:8080/mcp")
	cmd.Flags().String("call", "", "Tool to call after listing")
	cmd.Flags().String("args", "{}", "Arguments for --call as a JSON object")
	return cmd
}

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recorded calls from the call journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Journal.DSN == "" {
				return errors.New("journal is disabled (empty DSN)")
			}
			if cfg.Journal.InMemory() {
				return fmt.Errorf("journal DSN %q is in-memory and only visible to the process that wrote it; configure a file or postgres DSN", cfg.Journal.DSN)
			}
			toolName, _ := cmd.Flags().GetString("tool")
			after, _ := cmd.Flags().GetInt64("after")
			limit, _ := cmd.Flags().GetInt("limit")

			js, err := openJournal(cmd.Context(), cfg.Journal.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = js.Close() }()
			events, err := js.ListEvents(cmd.Context(), toolName, after, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().String("tool", "", "Only show calls to this tool")
	cmd.Flags().Int64("after", 0, "Only show events with a sequence number above this")
	cmd.Flags().Int("limit", 100, "Maximum number of events (0 for all)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "toolsrv %s (commit=%s, date=%s)\n", version, commit, date)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
