package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reshub/internal/app"
	"reshub/internal/build"
)

var forceBuild bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the static site to the public directory",
	Long: `Loads the catalog once and writes every listing, article, the 404
page, sitemap.xml and robots.txt. Outputs whose bytes did not change since
the last build are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&forceBuild, "force", false, "rewrite every output")
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	b := &build.Builder{App: a, Force: forceBuild}
	res, err := b.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	for _, w := range res.Warnings {
		logger.Warn("catalog record skipped", zap.String("slug", w.Slug), zap.String("reason", w.Msg))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d articles: %d written, %d unchanged, %d removed\n",
		res.Articles, res.Written, res.Unchanged, res.Removed)
	return nil
}
