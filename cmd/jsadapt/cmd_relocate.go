package main

import (
	"context"
	"path/filepath"

	"jsadapt/internal/sourcemap"
	"jsadapt/internal/transform"

	"github.com/spf13/cobra"
)

var relocateOut string

// relocateCmd rewrites the sources of a source map into loader coordinates
var relocateCmd = &cobra.Command{
	Use:   "relocate [map-file]",
	Short: "Rewrite the sources of a source map to <namespace>:<name>@<version>/<path>",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelocate,
}

func init() {
	relocateCmd.Flags().StringVarP(&relocateOut, "out", "o", "", "Output file (default: rewrite in place)")
}

func runRelocate(cmd *cobra.Command, args []string) error {
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dst := src
	if relocateOut != "" {
		dst = relocateOut
	}

	origin := sourcemap.Origin{
		Dir:       project.Dir,
		MapDir:    filepath.Dir(src),
		Name:      project.Name,
		Version:   project.Version,
		Namespace: project.Namespace,
	}
	relocate := transform.JSON("relocate-sources", func(_ context.Context, v any) (any, error) {
		return sourcemap.Relocate(v, origin)
	})
	if err := transform.TransformJSONFile(cmd.Context(), src, dst, relocate); err != nil {
		return err
	}
	cmd.Printf("relocated %s\n", dst)
	return nil
}
