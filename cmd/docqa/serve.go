package main

import (
	"os/signal"
	"syscall"

	"github.com/siherrmann/docqa/server"
	"github.com/spf13/cobra"
)

func serveCMD(load loader) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := load()
			if err != nil {
				return err
			}
			defer d.Close()

			if addr == "" {
				addr = cfg.Server.Address
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(d, cfg.Server, d.Logger()).Run(ctx, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from server.address)")

	return serve
}
