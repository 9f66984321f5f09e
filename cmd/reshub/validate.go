package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reshub/internal/domain/content"
	"reshub/internal/index"
	"reshub/internal/render"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config, series file and theme templates",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Loading the config already validated it.
	fmt.Fprintf(out, "config ok (%s)\n", configPath)

	reg, err := content.LoadSeries(cfg.Catalog.SeriesFile)
	if err != nil {
		return fmt.Errorf("series: %w", err)
	}
	fmt.Fprintf(out, "series ok (%d)\n", len(reg.All()))

	if cfg.Build.ThemeDir != "" && cfg.Site.Theme != "" {
		dir := filepath.Join(cfg.Build.ThemeDir, cfg.Site.Theme, "templates")
		missing, err := render.CheckThemeTemplates(dir)
		if err != nil {
			return fmt.Errorf("theme %s: %w", dir, err)
		}
		if len(missing) > 0 {
			fmt.Fprintf(out, "theme %s falls back to built-in: %s\n", cfg.Site.Theme, strings.Join(missing, ", "))
		} else {
			fmt.Fprintf(out, "theme ok (%s)\n", cfg.Site.Theme)
		}
	}
	return reportLastBuild(cmd)
}

// reportLastBuild prints what the manifest remembers of the previous build.
// A site that was never built is not an error.
func reportLastBuild(cmd *cobra.Command) error {
	st, err := index.Open(index.OpenOptions{Path: cfg.Build.IndexPath, ReadOnly: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no previous build")
		return nil
	}
	defer st.Close()
	info, err := st.LastBuild()
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no previous build")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "last build %s: %d items, %d written, %d unchanged, %d removed\n",
		info.At.Format(time.RFC3339), info.Items, info.Written, info.Unchanged, info.Removed)
	return nil
}
