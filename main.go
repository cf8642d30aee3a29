package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sorter/config"
	"sorter/internal/bootstrap"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

var (
	fromFileFlag bool
	outFlag      string
	dryRunFlag   bool
	rootCmd      = &cobra.Command{
		Use:           "sorter",
		Short:         "Classify and deduplicate Messages contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "extract",
			Short: "Read chat.db and the address book, write the contacts file",
			RunE:  withRunner(runExtract),
		},
		&cobra.Command{
			Use:   "upload",
			Short: "Upsert the contacts file into the contact store",
			RunE:  withRunner(runUpload),
		},
		classifyCommand(),
		dedupeCommand(),
		&cobra.Command{
			Use:   "run",
			Short: "Extract, upload and classify in one recorded run",
			RunE:  withRunner(runAll),
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the status endpoints and run the batch on a schedule",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "categories",
			Short: "Print the category vocabulary in display order",
			RunE:  withRunner(runCategories),
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func classifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign categories to uncategorized contacts",
		RunE:  withRunner(runClassify),
	}
	cmd.Flags().BoolVar(&fromFileFlag, "from-file", false, "Classify the contacts file instead of the contact store")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write planned assignments to this file (with --from-file)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the plan without writing")
	return cmd
}

func dedupeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Archive duplicate contacts in the contact store",
		RunE:  withRunner(runDedupe),
	}
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the duplicate groups without writing")
	return cmd
}

type runnerFunc func(ctx context.Context, cmd *cobra.Command, r *bootstrap.Runner) error

// withRunner loads config, opens dependencies and cancels on SIGINT/SIGTERM.
func withRunner(fn runnerFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return fn(ctx, cmd, bootstrap.NewRunner(deps))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := bootstrap.NewRunner(deps)
	scheduler := bootstrap.NewScheduler(runner.Run, cfg.ScheduleInterval, deps.Log)
	scheduler.Start()
	defer scheduler.Stop()

	app := bootstrap.NewAPI(deps)
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		deps.Log.Info().Str("addr", addr).Msg("status server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	deps.Log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		deps.Log.Error().Err(err).Msg("error shutting down")
	}
	return nil
}
