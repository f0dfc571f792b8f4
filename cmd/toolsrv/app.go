package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wilhg/toolsrv/pkg/config"
	"github.com/wilhg/toolsrv/pkg/fsops"
	toolotel "github.com/wilhg/toolsrv/pkg/otel"
	"github.com/wilhg/toolsrv/pkg/store"
	"github.com/wilhg/toolsrv/pkg/store/entstore"
	"github.com/wilhg/toolsrv/pkg/tasks"
	"github.com/wilhg/toolsrv/pkg/tool"
	"github.com/wilhg/toolsrv/pkg/tools"
)

// app is the in-process tool stack shared by serve, call and tools.
type app struct {
	disp    *tool.Dispatcher
	journal *entstore.Store
}

// newApp builds the registry and dispatcher. tel may be nil; the journal is opened
// when cfg.Journal.DSN is set.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, tel *toolotel.Telemetry) (*app, error) {
	reg, err := tools.NewRegistry(tasks.NewStore(), fsops.New(cfg.Workspace.Root))
	if err != nil {
		return nil, err
	}
	a := &app{}
	opts := []tool.Option{tool.WithLogger(logger)}
	if tel != nil {
		obs, err := toolotel.NewToolObserver(tel.MeterProvider.Meter("github.com/wilhg/toolsrv"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, tool.WithTracerProvider(tel.TracerProvider), tool.WithObserver(obs))
	}
	if cfg.Journal.DSN != "" {
		js, err := openJournal(ctx, cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		a.journal = js
		opts = append(opts, tool.WithObserver(store.NewRecorder(js, logger)))
	}
	a.disp = tool.NewDispatcher(reg, opts...)
	return a, nil
}

func openJournal(ctx context.Context, dsn string) (*entstore.Store, error) {
	js, err := entstore.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := js.Migrate(ctx); err != nil {
		_ = js.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return js, nil
}

func (a *app) Close() error {
	if a == nil || a.journal == nil {
		return nil
	}
	return a.journal.Close()
}
