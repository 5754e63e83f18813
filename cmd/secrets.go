package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

var (
	secretsStoreFormat    string
	secretsStoreInputFile string
)

var secretsCmd = &cobra.Command{
	Use: "secrets",
	Example: `  // generate new key and set environment variable
  export MASTER_KEY=$(pductl secrets generatekey)

  // store the write community of the lab PDUs
  pductl secrets store lab-rw 'v3ry-s3cret' -f secrets.json

  // reference it from the config
  //   snmp:
  //     rwcommunity: '{{ secret "lab-rw" }}'

  // list stored secrets
  pductl secrets list -f secrets.json`,
	Short: "Manage SNMP communities in an encrypted secrets file",
	Long:  "Manage SNMP communities in an encrypted secrets file. This requires generating a key and setting the 'MASTER_KEY' environment variable for the secrets store.",
}

var secretsGenerateKeyCmd = &cobra.Command{
	Use:   "generatekey",
	Args:  cobra.NoArgs,
	Short: "Generates a new 32-byte master key (in hex).",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secrets.GenerateMasterKey()
		if err != nil {
			return fmt.Errorf("failed to generate master key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var secretsStoreCmd = &cobra.Command{
	Use:   "store secretID [value]",
	Args:  cobra.RangeArgs(1, 2),
	Short: "Stores the given value under secretID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			secretID    = args[0]
			secretValue string
		)

		switch {
		case len(args) > 1 && secretsStoreInputFile != "":
			return fmt.Errorf("cannot use -i/--input-file with positional argument")
		case len(args) > 1:
			secretValue = args[1]
		case secretsStoreInputFile != "":
			b, err := os.ReadFile(secretsStoreInputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			secretValue = strings.TrimSpace(string(b))
		default:
			return fmt.Errorf("no input data or file")
		}

		switch secretsStoreFormat {
		case "basic":
		case "base64":
			decoded, err := base64.StdEncoding.DecodeString(secretValue)
			if err != nil {
				return fmt.Errorf("error decoding base64 data: %w", err)
			}
			secretValue = string(decoded)
		default:
			return fmt.Errorf("unknown input format '%s' (must be basic or base64)", secretsStoreFormat)
		}
		if secretValue == "" {
			return fmt.Errorf("refusing to store an empty secret")
		}

		store, err := secrets.OpenStore(secretsFile(cmd))
		if err != nil {
			return fmt.Errorf("failed to open secrets store: %w", err)
		}
		if err := store.StoreSecretByID(secretID, secretValue); err != nil {
			return fmt.Errorf("failed to store secret by ID: %w", err)
		}
		log.Info().Str("id", secretID).Msg("stored secret")
		return nil
	},
}

var secretsRetrieveCmd = &cobra.Command{
	Use:  "retrieve secretID",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(secretsFile(cmd))
		if err != nil {
			return err
		}
		secretValue, err := store.GetSecretByID(args[0])
		if err != nil {
			return fmt.Errorf("error retrieving secret: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret for %s: %s\n", args[0], secretValue)
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "Lists all the secret IDs and their values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(secretsFile(cmd))
		if err != nil {
			return err
		}
		stored, err := store.ListSecrets()
		if err != nil {
			return fmt.Errorf("error listing secrets: %w", err)
		}

		ids := make([]string, 0, len(stored))
		for id := range stored {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, stored[id])
		}
		return nil
	},
}

var secretsRemoveCmd = &cobra.Command{
	Use:   "remove secretIDs...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Remove secrets by IDs from secret store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(secretsFile(cmd))
		if err != nil {
			return err
		}
		for _, secretID := range args {
			if err := store.RemoveSecretByID(secretID); err != nil {
				return fmt.Errorf("failed to remove secret: %w", err)
			}
		}
		return nil
	},
}

// secretsFile prefers -f, then the --secrets-file used by the other
// commands, then secrets.json.
func secretsFile(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		return path
	}
	if path := viper.GetString("secrets.file"); path != "" {
		return path
	}
	return "secrets.json"
}

func init() {
	secretsCmd.PersistentFlags().StringP("file", "f", "", "Set the secrets file with SNMP communities (default: --secrets-file or secrets.json)")
	secretsStoreCmd.Flags().StringVarP(&secretsStoreFormat, "format", "F", "basic", "Set the input format of the value (basic|base64).")
	secretsStoreCmd.Flags().StringVarP(&secretsStoreInputFile, "input-file", "i", "", "Set the file to read as input.")

	secretsCmd.AddCommand(secretsGenerateKeyCmd)
	secretsCmd.AddCommand(secretsStoreCmd)
	secretsCmd.AddCommand(secretsRetrieveCmd)
	secretsCmd.AddCommand(secretsListCmd)
	secretsCmd.AddCommand(secretsRemoveCmd)

	rootCmd.AddCommand(secretsCmd)
}
