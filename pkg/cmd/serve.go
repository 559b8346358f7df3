package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/k8s-versions/k8s-versions/pkg/server"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

func NewServeCmd(version string) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio or HTTP",
		Example: `  k8s-versions serve
  k8s-versions serve --transport http --addr :3001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := LoadOptions(viper.GetViper())
			if opts.Transport != TransportStdio && opts.Transport != TransportHTTP {
				return fmt.Errorf("unsupported transport %q, must be %s or %s", opts.Transport, TransportStdio, TransportHTTP)
			}

			srv, err := newServer(opts, version)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.Transport == TransportHTTP {
				return srv.ListenAndServe(ctx, httpConfig(opts))
			}

			// stdout carries the protocol; logs stay on stderr.
			log.SetOutput(cmd.ErrOrStderr())
			log.Infof("%s %s listening on stdio", server.ServerName, version)
			return srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := serveCmd.Flags()
	flags.String(KeyTransport, TransportStdio, "Transport to serve on: stdio or http")
	flags.String("addr", server.DefaultAddr, "Listen address for the http transport")
	flags.Float64("rate-limit", server.DefaultRatePerSec, "Requests per second allowed per client IP on /mcp")

	_ = viper.BindPFlag(KeyTransport, flags.Lookup(KeyTransport))
	_ = viper.BindPFlag(KeyHTTPAddr, flags.Lookup("addr"))
	_ = viper.BindPFlag(KeyHTTPRateLimit, flags.Lookup("rate-limit"))

	return serveCmd
}
