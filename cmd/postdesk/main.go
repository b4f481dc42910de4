// Command postdesk is a client for a blog post CRUD API. It serves a browser
// front end, a terminal front end, a development Posts API and one-shot
// subcommands for scripting.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ratio1/postdesk/internal/config"
	"github.com/Ratio1/postdesk/internal/httpx"
	"github.com/Ratio1/postdesk/internal/logging"
	"github.com/Ratio1/postdesk/internal/prefs"
	"github.com/Ratio1/postdesk/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "postdesk:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root command has run its
// setup.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "postdesk",
		Short: "Client for a blog post CRUD API",
		Long: `postdesk lists, creates, edits and deletes blog posts held by a Posts API.

The API base URL is remembered between runs under the "apiBaseUrl" key of the
configured prefs store.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.serveCmd(), a.tuiCmd(), a.sandboxCmd())
	root.AddCommand(a.postCmds()...)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	path := a.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.Logging
	// The terminal front end owns the screen.
	if cmd.Name() == "tui" && logCfg.File == "" {
		logCfg.File = cfg.TUI.LogFile
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	if !a.verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// httpOptions configures outbound Posts API calls. Metrics are registered on
// reg when it is non-nil and enabled in config.
func (a *app) httpOptions(reg prometheus.Registerer) []httpx.Option {
	opts := []httpx.Option{
		httpx.WithTimeout(a.cfg.APITimeout()),
		httpx.WithLogger(a.logger.Named("api")),
	}
	if reg != nil && a.cfg.API.Metrics {
		opts = append(opts, httpx.WithMetrics(httpx.NewMetrics(reg)))
	}
	return opts
}

// controller opens the prefs store and builds a UI controller over it. The
// caller closes the store.
func (a *app) controller(ctx context.Context, reg prometheus.Registerer) (*ui.Controller, prefs.Store, error) {
	store, err := prefs.Open(ctx, a.cfg.Prefs)
	if err != nil {
		return nil, nil, err
	}
	ctrl := ui.NewController(store, ui.HTTPClients(a.httpOptions(reg)...), a.logger.Named("ui"))
	return ctrl, store, nil
}
