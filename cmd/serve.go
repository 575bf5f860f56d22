package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/incidentapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an in-memory incident API",
	Long: `The serve command runs a development incident API that keeps
incidents in memory.  It answers the same /incident resource the TUI
talks to and exposes its own metrics on /metrics.  Incidents are lost
when the server stops.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", incidentapi.DefaultListenAddr, "Address to listen on")
}

func runServe(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	api := incidentapi.New(incidentapi.NewMemStore(), incidentapi.WithMetrics(incidentapi.NewMetrics(reg)))
	log.Info("runServe", "addr", addr)
	return incidentapi.Serve(ctx, addr, incidentapi.NewHandler(api, reg))
}
