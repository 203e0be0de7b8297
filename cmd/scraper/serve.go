package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-channels/api"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/scraper"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var autostart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the control API; scraping starts on POST /api/scrape/start",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, driver := a.build()
			handler, err := api.NewServer(ctrl, driver.Metrics().Registry, a.cfg.CacheSize)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info().Str("addr", a.cfg.ListenAddr).Msg("control API listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				a.log.Info().Msg("shutting down")
				ctrl.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
				if ctrl.Status().State != models.StateInProgress {
					return nil
				}
				select {
				case <-ctrl.Done():
				case <-shutdownCtx.Done():
					a.log.Warn().Msg("scrape still running at shutdown")
				}
				return nil
			})

			if autostart {
				ctrl.Start(ctx)
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&autostart, "autostart", false, "Start scraping immediately")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape once without the control API and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, _ := a.build()
			ctrl.Start(ctx)
			go scraper.NewReporter(ctrl, scraper.DefaultPollInterval).Run(ctx)

			select {
			case <-ctrl.Done():
			case <-ctx.Done():
				a.log.Info().Msg("interrupt received, stopping scrape")
				ctrl.Stop()
				<-ctrl.Done()
			}

			result, err := ctrl.Result()
			printSummary(result, err)
			return err
		},
	}
}
