package cmd

import (
	pductl "github.com/OpenCHAMI/pductl/internal"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/OpenCHAMI/pductl/pkg/snmp"
	"github.com/cznic/mathutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `scan` command looks for PDUs by asking every host for its SNMP
// sysObjectID, which tells the vendor and so the candidate --hwsku values.
var scanCmd = &cobra.Command{
	Use: "scan <host|cidr>...",
	Example: `  // probe a lab subnet
  pductl scan 10.20.0.0/24 --community lab
  // only keep PDUs of a known family
  pductl scan 10.20.0.0/24 10.21.0.0/24 --pdus-only -F yaml`,
	Short: "Scan hosts for SNMP-managed PDUs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		community, err := secrets.RenderCommunity(viper.GetString("snmp.rocommunity"), util.BuildSecretStore())
		if err != nil {
			return err
		}

		concurrency := viper.GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = mathutil.Clamp(len(args)*256, 1, 256)
		}
		results := pductl.ScanForPDUs(pductl.ScanParams{
			Targets:     args,
			Concurrency: concurrency,
			PDUsOnly:    viper.GetBool("scan.pdus-only"),
			SNMP: snmp.Config{
				Port:          uint16(viper.GetUint("snmp.port")),
				Version:       viper.GetString("snmp.version"),
				ReadCommunity: community,
				Timeout:       viper.GetDuration("snmp.timeout"),
				Retries:       viper.GetInt("snmp.retries"),
			},
		})
		return writeOutput(cmd, results, viper.GetString("scan.output-file"))
	},
}

func init() {
	scanCmd.Flags().VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	addFlag("scan.pdus-only", scanCmd, "pdus-only", "", false, "Only report agents of a known PDU family")
	addFlag("scan.output-file", scanCmd, "output-file", "o", "", "Write the results to a JSON or YAML file instead")

	rootCmd.AddCommand(scanCmd)
}
