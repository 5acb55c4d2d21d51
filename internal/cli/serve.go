package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/server"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var serveAddr string

// serveCmd runs the read-only status panel.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the airdrop status panel over HTTP",
	GroupID: groupOps,
	Long: `Run a read-only HTTP panel with the destination status, allowances, the
current gas fee estimate and Prometheus metrics. No signing key is loaded.

Endpoints: /healthz, /api/v1/status, /api/v1/allowance/:owner,
/api/v1/gas-fee and /metrics. Stop it with Ctrl+C.`,
	Example: `  crossdrop serve
  crossdrop serve --addr 0.0.0.0:9090`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, err := newAirdropFn(ctx, cmdCtx, needSource|needDestination|needFees)
	if err != nil {
		return err
	}

	if !cfg.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(svc, server.Options{
		Addr:         firstNonEmpty(serveAddr, cfg.Server.Addr),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CacheTTL:     cfg.Server.CacheTTL,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Gatherer:     cmdCtx.Registry,
		Observer:     cmdCtx.Metrics,
		Logger:       logger.Zap(),
		Token:        cfg.Token.Symbol,
		Decimals:     cfg.Token.Decimals,
	})

	formatter.Infof("Status panel on http://%s", firstNonEmpty(serveAddr, cfg.Server.Addr))
	return srv.Run(ctx)
}
