package cmd

import (
	"fmt"

	"github.com/OpenCHAMI/pductl/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pductl",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flag("all").Value.String() == "true" {
			fmt.Fprintln(cmd.OutOrStdout(), version.VersionInfo())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		}
	},
}

// SetVersionInfo records the build information passed in by main.
func SetVersionInfo(v, commit, date string) {
	version.Set(v, commit, date)
}

func init() {
	versionCmd.Flags().Bool("all", false, "show the commit, build time and Go version as well")
	rootCmd.AddCommand(versionCmd)
}
