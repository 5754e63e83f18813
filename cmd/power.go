package cmd

import (
	"fmt"
	"time"

	pductl "github.com/OpenCHAMI/pductl/internal"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `power` command switches outlets of a single PDU on, off, or off and
// back on again.
var powerCmd = &cobra.Command{
	Use: "power <pdu> [outlet...]",
	Example: `  // turn off two outlets by address
  pductl power pdu-rack3 .1.5 .1.6 --state off
  // power-cycle every outlet feeding a DUT
  pductl power pdu-rack3 --hostname rack3-dut12 --state cycle --delay 10s
  // outlets can also be given by name
  pductl power pdu-rack3 rack3-dut12-psu1 --state on`,
	Short: "Switch PDU outlets on or off",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := pductl.ParsePowerAction(viper.GetString("power.state"))
		if err != nil {
			return err
		}
		params := pductl.PowerParams{
			Outlets:  args[1:],
			Hostname: viper.GetString("power.hostname"),
			Action:   action,
			Delay:    viper.GetDuration("power.delay"),
		}
		if len(params.Outlets) == 0 && params.Hostname == "" {
			return fmt.Errorf("no outlets given; pass outlets or --hostname")
		}

		configs, err := pductl.LoadPDUConfigs(args[:1])
		if err != nil {
			return err
		}
		if err := pductl.PowerOutlets(cmd.Context(), configs[0], util.BuildSecretStore(), params); err != nil {
			return fmt.Errorf("failed to power %s outlets of %s: %w", action, configs[0].Host, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s:\t%s\n", configs[0].Host, action)
		return nil
	},
}

func init() {
	addFlag("power.state", powerCmd, "state", "s", "", "Set the outlet state (on|off|cycle)")
	addFlag("power.hostname", powerCmd, "hostname", "H", "", "Also switch every outlet whose name contains this hostname")
	addFlag("power.delay", powerCmd, "delay", "d", 5*time.Second, "Set how long outlets stay off during a cycle")
	checkBindFlagError(powerCmd.MarkFlagRequired("state"))

	rootCmd.AddCommand(powerCmd)
}
