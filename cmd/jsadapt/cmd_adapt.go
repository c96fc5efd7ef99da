package main

import (
	"context"
	"fmt"
	"io"

	"jsadapt/internal/adapt"
	"jsadapt/internal/bundler"
	"jsadapt/internal/config"
	"jsadapt/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// adaptCmd adapts bundles already present in the bundle directory
var adaptCmd = &cobra.Command{
	Use:   "adapt [bundle-id...]",
	Short: "Adapt bundler output for the AMD loader",
	Long: `Reads <bundle_dir>/<id>.bundle.js (and its .map) for every given bundle,
or for every bundle found when no id is given, and writes the adapted
bundles, their source maps and adapt.manifest.json to the output directory.`,
	RunE: runAdapt,
}

var showDiff bool

func init() {
	adaptCmd.Flags().BoolVar(&showDiff, "diff", false, "Print what would change in the output directory and write nothing")
}

// buildCmd bundles the project with esbuild and adapts the result
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Bundle the project exports with esbuild, then adapt them",
	RunE:  runBuild,
}

func runAdapt(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if showDiff {
		return previewBundles(ctx, cmd.OutOrStdout(), project, args)
	}
	return adaptBundles(ctx, cmd.OutOrStdout(), project, args)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return buildAndAdapt(ctx, cmd.OutOrStdout(), project)
}

func adaptBundles(ctx context.Context, out io.Writer, p *config.Project, ids []string) error {
	runID := uuid.New().String()[:8]
	log := logging.WithRunID(logging.CategoryBoot, runID)
	log.Info("adapting bundles of %s", p.Name)

	a, err := adapt.NewAdapter(p)
	if err != nil {
		return err
	}
	report, err := a.AdaptBundles(ctx, ids)
	if report != nil {
		printReport(out, runID, report)
	}
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		log.Error("%d of %d bundles failed", len(failed), len(report.Bundles))
		return fmt.Errorf("%d of %d bundles failed", len(failed), len(report.Bundles))
	}
	return nil
}

func previewBundles(ctx context.Context, out io.Writer, p *config.Project, ids []string) error {
	a, err := adapt.NewAdapter(p)
	if err != nil {
		return err
	}
	report, err := a.Preview(ctx, ids)
	if err != nil {
		return err
	}
	for _, b := range report.Bundles {
		switch {
		case b.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", failStyle.Render("✗"), b.ID, b.Err)
		case b.Diff == "":
			fmt.Fprintln(out, mutedStyle.Render(b.ID+": up to date"))
		default:
			fmt.Fprint(out, b.Diff)
		}
	}
	return report.Err()
}

func buildAndAdapt(ctx context.Context, out io.Writer, p *config.Project) error {
	res, err := bundler.New(p).Build(ctx)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(out, warnStyle.Render("warning: "+w))
	}
	return adaptBundles(ctx, out, bundler.ForBundles(p), res.IDs())
}
