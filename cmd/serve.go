package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZacxDev/hotel-site/handlers"
	"github.com/ZacxDev/hotel-site/javascript"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := moduleLogger(logging.RootModule)
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = appConfig.Port
		}

		site, err := loadSite()
		if err != nil {
			return err
		}
		site.Scripts, err = javascript.CompileJSTarget(site.Root, site.Manifest.JavascriptTargets, logger)
		if err != nil {
			return err
		}
		router, err := handlers.SetupRouter(site)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Build the alias map before taking traffic so a bad bundle fails fast.
		if _, err := site.Resolver.AliasMap(ctx); err != nil {
			return err
		}

		server := &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("server.starting", "port", port, "site", site.Root)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("server.stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to run the server on (default from config, 9010)")
}
