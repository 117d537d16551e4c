package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the analyze API (and the web frontend unless web.enabled=false)",
		Long: `Binds 0.0.0.0 on PORT (default 8787) and serves /healthz, /readyz,
/metrics and POST /api/analyze. Keys come from ALLOWED_KEYS in
"label:key|label:key" form. A bind failure terminates the process.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, server.ModeAll)
		},
	}
}

func newWebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Runs only the web frontend against web.api_base",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, server.ModeWeb)
		},
	}
}

func runServer(cmd *cobra.Command, mode server.Mode) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(rt.cfg, mode, rt.logger)
	if err != nil {
		return err
	}
	ln, err := app.Listen()
	if err != nil {
		rt.logger.Fatal("listen failed", zap.Error(err))
	}
	return app.Serve(ctx, ln)
}
