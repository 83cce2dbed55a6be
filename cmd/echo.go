package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"echoload/internal/echo"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Serve a local /echo target",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		failRate, _ := cmd.Flags().GetFloat64("fail-rate")
		latency, _ := cmd.Flags().GetDuration("latency")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := echo.NewServer(echo.ServerConfig{Port: port, FailRate: failRate, Latency: latency}, log)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	echoCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	echoCmd.Flags().Float64("fail-rate", 0, "fraction of /echo requests answered with 500 (0-1)")
	echoCmd.Flags().Duration("latency", 0, "delay added to every /echo response")
}
