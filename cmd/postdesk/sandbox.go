package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ratio1/postdesk/internal/sandbox"
	"github.com/Ratio1/postdesk/internal/server"
)

func (a *app) sandboxCmd() *cobra.Command {
	var (
		addr    string
		prefix  string
		data    string
		latency time.Duration
		fail    string
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run the development Posts API",
		Long: `Runs an in-memory Posts API seeded with two posts.

With --data, posts are loaded from the file when it exists and written back
after every change. --fail injects errors, e.g. --fail rate=0.2,code=503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				a.cfg.Sandbox.Addr = addr
			}
			if flags.Changed("prefix") {
				a.cfg.Sandbox.Prefix = prefix
			}
			if flags.Changed("data") {
				a.cfg.Sandbox.DataFile = data
			}
			if flags.Changed("latency") {
				a.cfg.Sandbox.Latency = latency.String()
			}
			if flags.Changed("fail") {
				fc, err := sandbox.ParseFailure(fail)
				if err != nil {
					return err
				}
				a.cfg.Sandbox.FailRate = fc.Rate
				a.cfg.Sandbox.FailStatus = fc.Code
			}

			router, err := a.sandboxRouter()
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", a.cfg.Sandbox.Addr)
			if err != nil {
				return fmt.Errorf("sandbox: listen %s: %w", a.cfg.Sandbox.Addr, err)
			}
			return server.Serve(cmd.Context(), server.New(router), ln, a.logger.Named("sandbox"))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "route prefix (default from config)")
	cmd.Flags().StringVar(&data, "data", "", "JSON or YAML file to load posts from and save them to")
	cmd.Flags().DurationVar(&latency, "latency", 0, "artificial latency per request")
	cmd.Flags().StringVar(&fail, "fail", "", "failure injection (rate=<float>,code=<status>)")
	return cmd
}
