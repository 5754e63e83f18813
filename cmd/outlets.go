package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	pductl "github.com/OpenCHAMI/pductl/internal"
	"github.com/OpenCHAMI/pductl/internal/cache"
	"github.com/OpenCHAMI/pductl/internal/cache/sqlite"
	"github.com/OpenCHAMI/pductl/internal/format"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/cznic/mathutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputFormat = format.FORMAT_LIST

// The `outlets` command walks the outlet names of each PDU and prints the
// resulting directory. With --save the directory is also saved so it can
// be listed later with `cache list`.
var outletsCmd = &cobra.Command{
	Use: "outlets [pdu...]",
	Example: `  // list the outlets of every PDU in the config
  pductl outlets
  // list two PDUs not in the config, with their power state
  pductl outlets --hwsku Sentry4 --community lab pdu-rack3 pdu-rack4 --status
  // export xnames for a PDU in cabinet 3000
  pductl outlets pdu-rack3 --cabinet 3000 -F yaml`,
	Short: "List the outlets of PDUs",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := pductl.LoadPDUConfigs(args)
		if err != nil {
			return err
		}

		params := pductl.InventoryParams{
			Concurrency: concurrency(len(configs)),
			WithStatus:  viper.GetBool("outlets.status"),
		}
		if cmd.Flags().Changed("cabinet") {
			cabinet := viper.GetInt("outlets.cabinet")
			params.Cabinet = &cabinet
		}
		if cmd.Flags().Changed("controller") {
			controller := viper.GetInt("outlets.controller")
			params.Controller = &controller
		}

		inventories, collectErr := pductl.CollectInventory(configs, util.BuildSecretStore(), params)

		if viper.GetBool("outlets.save") {
			if err := cacheInventories(viper.GetString("cache"), inventories); err != nil {
				log.Error().Err(err).Msg("failed to cache outlets")
			}
		}

		if err := writeOutput(cmd, inventories, viper.GetString("outlets.output-file")); err != nil {
			return err
		}
		return collectErr
	},
}

func cacheInventories(path string, inventories pductl.Inventories) error {
	outletCache, err := sqlite.CreateOutletCacheIfNotExists(path)
	if err != nil {
		return err
	}
	defer outletCache.Close()

	now := time.Now()
	for _, inventory := range inventories {
		// replace what was cached for the PDU so removed outlets disappear
		if err := outletCache.Delete(cache.Outlet{PDU: inventory.Hostname}); err != nil {
			return err
		}
		if err := outletCache.Insert(cache.FromInventory(inventory, now)...); err != nil {
			return err
		}
		log.Debug().Str("pdu", inventory.Hostname).Str("path", path).Msg("cached outlets")
	}
	return nil
}

// writeOutput prints data in the --format format, or writes it to path
// with the format taken from the file extension.
func writeOutput(cmd *cobra.Command, data any, path string) error {
	if path != "" {
		b, err := format.Marshal(data, format.DataFormatFromFileExt(path, format.FORMAT_JSON))
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().Str("path", path).Msg("wrote output")
		return nil
	}

	b, err := format.Marshal(data, outputFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
	return nil
}

// concurrency returns the number of PDUs to handle at once, defaulting to
// one worker per PDU.
func concurrency(targets int) int {
	concurrency := viper.GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = mathutil.Clamp(targets, 1, 10000)
	}
	return concurrency
}

func init() {
	outletsCmd.Flags().VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	addFlag("outlets.output-file", outletsCmd, "output-file", "o", "", "Write the outlets to a JSON or YAML file instead")
	addFlag("outlets.status", outletsCmd, "status", "s", false, "Also read the power state of every outlet")
	addFlag("outlets.save", outletsCmd, "save", "", false, "Save the outlets to the cache")
	addFlag("outlets.cabinet", outletsCmd, "cabinet", "", 0, "Cabinet number used to name outlets as xnames")
	addFlag("outlets.controller", outletsCmd, "controller", "", 0, "Cabinet PDU controller number used in outlet xnames")

	rootCmd.AddCommand(outletsCmd)
}
