package cmd

import (
	pductl "github.com/OpenCHAMI/pductl/internal"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `status` command reads the power state, and the output power on
// metered PDUs, of the selected outlets.
var statusCmd = &cobra.Command{
	Use: "status [pdu...]",
	Example: `  // status of every outlet of every configured PDU
  pductl status
  // outlets feeding a DUT, found by the hostname in the outlet names
  pductl status pdu-rack3 --hostname rack3-dut12
  // a single outlet, matched by address suffix
  pductl status pdu-rack3 --outlet .1.5 -F json`,
	Short: "Get the power state of PDU outlets",
	Long:  "Get the power state of PDU outlets. --outlet matches outlet addresses by suffix and takes precedence over --hostname, which matches outlet names by substring.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := pductl.LoadPDUConfigs(args)
		if err != nil {
			return err
		}

		filter := pdu.StatusFilter{
			Outlet:   viper.GetString("status.outlet"),
			Hostname: viper.GetString("status.hostname"),
		}
		report, statusErr := pductl.CollectStatus(configs, util.BuildSecretStore(), concurrency(len(configs)), filter)
		if err := writeOutput(cmd, report, viper.GetString("status.output-file")); err != nil {
			return err
		}
		return statusErr
	},
}

func init() {
	statusCmd.Flags().VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	addFlag("status.outlet", statusCmd, "outlet", "", "", "Only read outlets whose address ends with this")
	addFlag("status.hostname", statusCmd, "hostname", "H", "", "Only read outlets whose name contains this hostname")
	addFlag("status.output-file", statusCmd, "output-file", "o", "", "Write the status to a JSON or YAML file instead")

	rootCmd.AddCommand(statusCmd)
}
