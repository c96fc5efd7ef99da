package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jsadapt/internal/logging"
	"jsadapt/internal/watch"

	"github.com/spf13/cobra"
)

// watchCmd rebuilds on every source change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build and adapt the project, then again on every change",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	rebuild := func(ctx context.Context, changed []string) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return buildAndAdapt(ctx, out, project)
	}

	w, err := watch.New(project, rebuild)
	if err != nil {
		return err
	}
	w.Trigger(ctx, nil)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	logging.Boot("received shutdown signal")
	return nil
}
