package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/Wikifaq/internal/app"
	"github.com/markdave123-py/Wikifaq/internal/config"
	"github.com/markdave123-py/Wikifaq/internal/logger"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
)

// newApp loads config, sets up logging and constructs the application.
func newApp(ctx context.Context) (*app.App, error) {
	cfg := config.LoadConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return app.NewApp(ctx, cfg)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the background queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		metrics.Serve(application.Config.MetricsPort)

		go application.Orchestrator.Run(ctx)

		errCh := make(chan error, 1)
		go func() {
			errCh <- application.Server.Start()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return application.Server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the queue polling worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		metrics.Serve(application.Config.MetricsPort)

		slog.Info("worker polling", "interval", application.Config.WorkerPollInterval)
		application.Orchestrator.Run(ctx)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch of pending queue entries and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		processed, err := application.Orchestrator.RunBatch(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d page(s)\n", processed)
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile the vector index with the relational store",
	RunE: func(cmd *cobra.Command, args []string) error {
		renameFrom, _ := cmd.Flags().GetString("rename-from")
		renameTo, _ := cmd.Flags().GetString("rename-to")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		if renameFrom != "" || renameTo != "" {
			if renameFrom == "" || renameTo == "" {
				return fmt.Errorf("--rename-from and --rename-to must be used together")
			}
			n, err := application.Sweeper.RenameSlug(ctx, renameFrom, renameTo)
			if err != nil {
				return err
			}
			fmt.Printf("rewrote %d vector(s) from %q to %q\n", n, renameFrom, renameTo)
			return nil
		}

		repaired, err := application.Sweeper.RepairDrift(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("repaired %d record(s)\n", repaired)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Enqueue pages for processing",
	Long: `Enqueue pages for processing.

Examples:
  wikifaq seed --titles "Go (programming language),Concurrency"
  wikifaq seed --retry-failed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		titlesStr, _ := cmd.Flags().GetString("titles")
		retryFailed, _ := cmd.Flags().GetBool("retry-failed")

		if titlesStr == "" && !retryFailed {
			return fmt.Errorf("one of --titles or --retry-failed is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		if retryFailed {
			n, err := application.DBClient.RequeueFailed(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("re-queued %d failed page(s)\n", n)
		}

		if titlesStr != "" {
			titles := strings.Split(titlesStr, ",")
			for i := range titles {
				titles[i] = strings.TrimSpace(titles[i])
			}
			n, err := seedTitles(ctx, application, titles)
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %d of %d title(s)\n", n, len(titles))
		}
		return nil
	},
}

func init() {
	repairCmd.Flags().String("rename-from", "", "old slug whose vector metadata should be rewritten")
	repairCmd.Flags().String("rename-to", "", "new canonical slug")
	seedCmd.Flags().String("titles", "", "comma-separated page titles to enqueue")
	seedCmd.Flags().Bool("retry-failed", false, "flip terminal-failed queue rows back to pending")
}
