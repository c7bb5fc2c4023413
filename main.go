package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/service/archive"
	"gmtracker/app/service/bridge"
	"gmtracker/app/service/engine"
	"gmtracker/app/service/generate"
	"gmtracker/app/service/history"
	"gmtracker/app/service/injector"
	"gmtracker/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, host.NewRuntime)
	do.Provide(di, func(i *do.Injector) (host.TranscriptReader, error) {
		return do.MustInvoke[*host.Runtime](i), nil
	})
	do.Provide(di, func(i *do.Injector) (host.SlotWriter, error) {
		return do.MustInvoke[*host.Runtime](i), nil
	})
	do.Provide(di, func(_ *do.Injector) (host.SuppressionEvaluator, error) {
		return &host.FlagSuppression{Conflicts: cfg.Tracker.SuppressFlags}, nil
	})
	do.Provide(di, archive.New)
	do.Provide(di, injector.New)
	do.Provide(di, history.New)
	do.Provide(di, engine.New)
	do.Provide(di, generate.New)
	do.Provide(di, bridge.New)

	runtime := do.MustInvoke[*host.Runtime](di)
	runtime.SetSink(do.MustInvoke[*engine.Service](di))

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	g, gCtx := errgroup.WithContext(appCtx)

	if cfg.MCP.Serve {
		g.Go(func() error {
			return do.MustInvoke[*bridge.Service](di).Serve(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Service stopped", "error", err)
	}
}
