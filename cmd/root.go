// The cmd package implements the interface for the pductl CLI. The files
// contained in this package only contain implementations for handling CLI
// arguments and passing them to functions within pductl's internal API.
//
// Each CLI subcommand that talks to a PDU has a corresponding internal
// routine:
//
//	cmd/outlets.go --> internal/pdus.go ( pductl.CollectInventory() )
//	cmd/status.go  --> internal/pdus.go ( pductl.CollectStatus() )
//	cmd/power.go   --> internal/power.go ( pductl.PowerOutlets() )
//	cmd/cache.go   --> none (reads the cache directly)
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pductllog "github.com/OpenCHAMI/pductl/internal/log"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var logLevel = pductllog.INFO

// The `root` command doesn't do anything on it's own except display
// a help message and then exits.
var rootCmd = &cobra.Command{
	Use:   "pductl",
	Short: "SNMP power distribution unit outlet controller",
	Long:  "Discover, read and switch the outlets of SNMP-managed PDUs (APC, ServerTech Sentry, Emerson, Vertiv, Raritan).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := pductllog.InitWithLogLevel(logLevel, viper.GetString("log-file")); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			err := cmd.Help()
			if err != nil {
				log.Error().Err(err).Msg("failed to print help")
			}
			os.Exit(0)
		}
	},
}

// This Execute() function is called from main to run the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitializeConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Set the config file path")
	flags.Var(&logLevel, "log-level", "Set the log level (trace|debug|info|warn|error|disabled)")
	flags.String("log-file", "", "Also write logs to this file")
	flags.IntP("concurrency", "j", -1, "Set the number of PDUs handled at once")
	flags.String("cache", util.DefaultCachePath(), "Set the outlet cache path")
	flags.String("secrets-file", "", "Set the secrets file holding SNMP communities")
	flags.String("hwsku", "", "Set the hardware SKU of PDUs not in the config (Apc|ApcRPDU|Sentry|Sentry4|Emerson|Vertiv|Raritan)")
	flags.String("psu-peer-type", "", "Set the PSU peer type of PDUs not in the config (e.g. Pdu)")
	flags.String("community", "public", "Set the read-only SNMP community")
	flags.String("write-community", "private", "Set the read-write SNMP community")
	flags.String("snmp-version", "2c", "Set the SNMP version (1|2c)")
	flags.Uint16("port", 161, "Set the SNMP port")
	flags.DurationP("timeout", "t", 5*time.Second, "Set the SNMP request timeout")
	flags.Int("retries", 1, "Set the number of SNMP retries")

	// bind viper config flags with cobra
	checkBindFlagError(viper.BindPFlag("config", flags.Lookup("config")))
	checkBindFlagError(viper.BindPFlag("log-file", flags.Lookup("log-file")))
	checkBindFlagError(viper.BindPFlag("concurrency", flags.Lookup("concurrency")))
	checkBindFlagError(viper.BindPFlag("cache", flags.Lookup("cache")))
	checkBindFlagError(viper.BindPFlag("secrets.file", flags.Lookup("secrets-file")))
	checkBindFlagError(viper.BindPFlag("hwsku", flags.Lookup("hwsku")))
	checkBindFlagError(viper.BindPFlag("psu-peer-type", flags.Lookup("psu-peer-type")))
	checkBindFlagError(viper.BindPFlag("snmp.rocommunity", flags.Lookup("community")))
	checkBindFlagError(viper.BindPFlag("snmp.rwcommunity", flags.Lookup("write-community")))
	checkBindFlagError(viper.BindPFlag("snmp.version", flags.Lookup("snmp-version")))
	checkBindFlagError(viper.BindPFlag("snmp.port", flags.Lookup("port")))
	checkBindFlagError(viper.BindPFlag("snmp.timeout", flags.Lookup("timeout")))
	checkBindFlagError(viper.BindPFlag("snmp.retries", flags.Lookup("retries")))
}

// addFlag defines a local flag on cmd and binds it to the viper key.
func addFlag(key string, cmd *cobra.Command, name, shorthand string, value any, usage string) {
	flags := cmd.Flags()
	switch v := value.(type) {
	case string:
		flags.StringP(name, shorthand, v, usage)
	case bool:
		flags.BoolP(name, shorthand, v, usage)
	case int:
		flags.IntP(name, shorthand, v, usage)
	case []string:
		flags.StringSliceP(name, shorthand, v, usage)
	case time.Duration:
		flags.DurationP(name, shorthand, v, usage)
	case pflag.Value:
		flags.VarP(v, name, shorthand, usage)
	default:
		panic(fmt.Sprintf("addFlag: unsupported type %T for flag %s", value, name))
	}
	checkBindFlagError(viper.BindPFlag(key, flags.Lookup(name)))
}

func checkBindFlagError(err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to bind cobra/viper flag")
	}
}

// InitializeConfig() initializes a new config object by loading it
// from a file given a non-empty string. Environment variables prefixed
// with PDUCTL_ override the file, e.g. PDUCTL_SNMP_TIMEOUT.
func InitializeConfig() {
	viper.SetEnvPrefix("pductl")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			configDir = "$HOME/.config"
		}
		viper.AddConfigPath(configDir + "/pductl")
		viper.SetConfigName("config")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Err(err).Msg("no config file found")
			return
		}
		log.Error().Err(err).Msg("failed to load config")
	}
}
