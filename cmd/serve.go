package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/highlander/internal/catalog"
	"github.com/arcanaland/highlander/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve legality checks over HTTP",
	Long: `Serve starts an HTTP server answering legality checks, card lookups and random
card requests. The catalog loads in the background; requests wait for it.

The card cache is watched, so running 'highlander fetch' elsewhere refreshes a
running server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = cfg.Listen
		}
		srv, err := server.New(server.Config{
			Addr:   addr,
			Engine: a.engine,
			Store:  a.store,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		watcher, err := catalog.NewWatcher(a.store, logger)
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return a.loadCatalog(ctx)
		})
		g.Go(func() error {
			return watcher.Run(ctx)
		})
		g.Go(func() error {
			return srv.Run(ctx)
		})

		err = g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (default from config)")
}
