package cmd

import (
	"fmt"
	"os"

	"github.com/OpenCHAMI/pductl/internal/cache"
	"github.com/OpenCHAMI/pductl/internal/cache/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage outlets saved in the cache",
	Run: func(cmd *cobra.Command, args []string) {
		// show the help for cache and exit
		if len(args) <= 0 {
			cmd.Help()
			os.Exit(0)
		}
	},
}

// The `cache list` command shows what `outlets --save` stored, without
// talking to any PDU.
var cacheListCmd = &cobra.Command{
	Use:   "list [pdu...]",
	Short: "List cached outlets",
	Example: `  pductl cache list
  pductl cache list pdu-rack3 -F yaml
  pductl cache list --cache ./outlets.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outletCache, err := sqlite.OpenOutletCache(viper.GetString("cache"))
		if err != nil {
			return err
		}
		defer outletCache.Close()

		outlets := cache.Outlets{}
		if len(args) == 0 {
			if outlets, err = outletCache.Get(); err != nil {
				return err
			}
		}
		for _, host := range args {
			found, err := outletCache.GetByPDU(host)
			if err != nil {
				return err
			}
			outlets = append(outlets, found...)
		}
		return writeOutput(cmd, outlets, "")
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <pdu> [outlet...]",
	Short: "Remove a PDU or some of its outlets from the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outletCache, err := sqlite.OpenOutletCache(viper.GetString("cache"))
		if err != nil {
			return err
		}
		defer outletCache.Close()

		entries := []cache.Outlet{}
		if len(args) == 1 {
			entries = append(entries, cache.Outlet{PDU: args[0]})
		}
		for _, outlet := range args[1:] {
			entries = append(entries, cache.Outlet{PDU: args[0], OutletID: outlet})
		}
		if err := outletCache.Delete(entries...); err != nil {
			return fmt.Errorf("failed to remove cached outlets: %w", err)
		}
		log.Info().Str("pdu", args[0]).Int("entries", len(entries)).Msg("removed cached outlets")
		return nil
	},
}

func init() {
	cacheListCmd.Flags().VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
	rootCmd.AddCommand(cacheCmd)
}
