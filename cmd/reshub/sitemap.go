package main

import (
	"os"

	"github.com/spf13/cobra"

	"reshub/internal/app"
	"reshub/internal/build"
)

var sitemapOut string

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Print sitemap.xml for the current catalog",
	Args:  cobra.NoArgs,
	RunE:  runSitemap,
}

func init() {
	sitemapCmd.Flags().StringVarP(&sitemapOut, "out", "o", "", "write to file instead of stdout")
}

func runSitemap(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	cat, err := a.LoadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	data, err := build.Sitemap(a.Engine().SEO(), cat.Items())
	if err != nil {
		return err
	}
	if sitemapOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(sitemapOut, data, 0o644)
}
