package cmd

import (
	pductl "github.com/OpenCHAMI/pductl/internal"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/OpenCHAMI/pductl/pkg/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `serve` command launches a long-running server that keeps one
// controller per PDU and exposes them over HTTP.
var serveCmd = &cobra.Command{
	Use:     "serve [pdu...]",
	Aliases: []string{"daemon"},
	Example: `  // serve every PDU in the config
  pductl serve -c config.yaml
  // serve two PDUs on another port
  pductl serve pdu-rack3 pdu-rack4 --hwsku Sentry4 -e :9161

  // then
  curl localhost:8080/pdus/pdu-rack3/status?hostname=rack3-dut12
  curl -X POST -H "Authorization: Bearer $TOKEN" localhost:8080/pdus/pdu-rack3/outlets/.1.5/off`,
	Short: "Launch a long-running web server, e.g. for container use",
	Long:  "Discovers the outlets of every PDU once and serves them as HTTP endpoints, together with Prometheus metrics on /metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := pductl.LoadPDUConfigs(args)
		if err != nil {
			return err
		}
		controllers, err := pductl.ConnectAll(configs, util.BuildSecretStore(), concurrency(len(configs)))
		if err != nil {
			log.Warn().Err(err).Msg("serving without some PDUs")
		}
		defer func() {
			for _, c := range controllers {
				c.Close()
			}
		}()
		var opts []daemon.Option
		if source := viper.GetString("daemon.jwks"); source != "" {
			keys, err := daemon.LoadKeySet(cmd.Context(), source)
			if err != nil {
				return err
			}
			opts = append(opts, daemon.WithKeySet(keys))
		} else {
			log.Warn().Msg("no JWKS configured, switching outlets does not require a token")
		}
		return daemon.RunServer(cmd.Context(), viper.GetString("daemon.endpoint"), controllers, opts...)
	},
}

func init() {
	addFlag("daemon.endpoint", serveCmd, "endpoint", "e", "localhost:8080", "Root endpoint for the daemon to listen on")
	addFlag("daemon.jwks", serveCmd, "jwks", "", "", "JWKS file or URL verifying bearer tokens on outlet switch requests")

	rootCmd.AddCommand(serveCmd)
}
