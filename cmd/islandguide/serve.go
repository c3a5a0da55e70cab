package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/islandguide/internal/adapters/filewatcher"
	"github.com/0xcro3dile/islandguide/internal/config"
	apihttp "github.com/0xcro3dile/islandguide/internal/infrastructure/http"
)

var watchDebounce = 2 * time.Second

func serveCMD(getCfg func() *config.Config) *cobra.Command {
	var (
		port  string
		watch bool
	)
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.WatchDocuments = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			slog.Info("starting islandguide",
				"port", cfg.Port,
				"documents", cfg.DocumentsDir,
				"data", cfg.DataDir,
				"embed_provider", cfg.EmbedProvider,
				"llm_provider", cfg.LLMProvider,
				"browser_tier", cfg.TransitBrowserEnabled,
			)

			a.bootstrap(ctx)

			// The watcher may be mid-reload at shutdown; it must finish
			// before the deferred Close releases the index.
			var watchers sync.WaitGroup
			defer watchers.Wait()
			defer stop()

			if cfg.WatchDocuments {
				if err := watchDocuments(ctx, a, &watchers); err != nil {
					slog.Error("document watcher disabled", "error", err)
				}
			}

			server := apihttp.NewServer(a.router, a.ingest, a.metrics, apihttp.Options{
				AppName:       cfg.AppName,
				ReloadEnabled: cfg.ReloadEndpointEnabled,
				Gatherer:      a.registry,
			})
			return server.Start(ctx, ":"+cfg.Port)
		},
	}
	serve.Flags().StringVar(&port, "port", "8080", "listen port (overrides PORT)")
	serve.Flags().BoolVar(&watch, "watch", false, "reload when files in the documents directory change")
	return serve
}

// watchDocuments reloads the index after a quiet period following changes.
// wg is done once the watcher has stopped, after any in-flight reload.
func watchDocuments(ctx context.Context, a *app, wg *sync.WaitGroup) error {
	watcher, err := filewatcher.NewFSNotifyWatcher(a.watchExt)
	if err != nil {
		return err
	}
	events, err := watcher.Watch(ctx, a.cfg.DocumentsDir)
	if err != nil {
		watcher.Stop()
		return err
	}

	slog.Info("watching documents", "dir", a.cfg.DocumentsDir)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer watcher.Stop()
		filewatcher.Debounce(ctx, events, watchDebounce, func(ctx context.Context) {
			slog.Info("documents changed, reloading")
			a.reload(ctx)
		})
	}()
	return nil
}
