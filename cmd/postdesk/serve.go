package main

import (
	"context"
	"fmt"
	"net"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ratio1/postdesk/internal/sandbox"
	"github.com/Ratio1/postdesk/internal/server"
	"github.com/Ratio1/postdesk/internal/tui"
	"github.com/Ratio1/postdesk/internal/web"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr        string
		withSandbox bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser front end",
		Long: `Serves the posts page on the web address from config.

With --sandbox a development Posts API is started as well, on the sandbox
address from config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Web.Addr = addr
			}
			if cmd.Flags().Changed("sandbox") {
				a.cfg.Web.Sandbox = withSandbox
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&withSandbox, "sandbox", false, "also run the development Posts API")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	ctrl, store, err := a.controller(ctx, reg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := web.Options{Logger: a.logger.Named("web")}
	if a.cfg.API.Metrics {
		opts.Gatherer = reg
	}
	site := web.New(ctrl, opts)

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Web.Sandbox {
		router, err := a.sandboxRouter()
		if err != nil {
			return err
		}
		// Listen before the web server initialises, its saved URL may point here.
		ln, err := net.Listen("tcp", a.cfg.Sandbox.Addr)
		if err != nil {
			return fmt.Errorf("sandbox: listen %s: %w", a.cfg.Sandbox.Addr, err)
		}
		g.Go(func() error {
			return server.Serve(gctx, server.New(router), ln, a.logger.Named("sandbox"))
		})
	}
	g.Go(func() error {
		return site.Run(gctx, a.cfg.Web.Addr)
	})
	return g.Wait()
}

func (a *app) tuiCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal front end",
		Long: `Opens the posts screen in the terminal.

Logs go to tui.log_file unless logging.file is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, store, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer store.Close()
			return tui.Run(cmd.Context(), ctrl, tui.Options{Markdown: a.cfg.TUI.Markdown && !plain})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "show post content without markdown rendering")
	return cmd
}

// sandboxRouter builds the development Posts API from the sandbox config.
func (a *app) sandboxRouter() (*gin.Engine, error) {
	store, err := sandbox.NewStore(a.cfg.Sandbox.DataFile)
	if err != nil {
		return nil, err
	}
	return sandbox.NewRouter(store, sandbox.Options{
		Prefix:  a.cfg.Sandbox.Prefix,
		Latency: a.cfg.SandboxLatency(),
		Fail: sandbox.FailConfig{
			Rate: a.cfg.Sandbox.FailRate,
			Code: a.cfg.Sandbox.FailStatus,
		},
		Logger: a.logger.Named("sandbox"),
	}), nil
}
