package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reshub/internal/analytics"
	"reshub/internal/app"
	"reshub/internal/serve"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render pages per request with live reload",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	a.Report = analytics.ZapReporter(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := serve.New(a)
	defer s.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	return s.ListenAndServe(ctx, addr)
}
