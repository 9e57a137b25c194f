// Package configcmder provides the config command for managing persistent
// scout configuration stored in the .scout/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent scout configuration.

Configuration is stored as config.toml in the .scout/ directory and provides
default values for command flags. CLI flags and SCOUT_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.disable_normalize,
  novelty.threshold,
  generator.provider, generator.model,
  reddit.user_agent, reddit.limit,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  api.listen

Use subcommands to get, set, or list configuration values:
  scout config set <key> <value>    Set a configuration value
  scout config get <key>            Get a configuration value
  scout config list                 List all configuration values

Examples:
  scout config set novelty.threshold 0.9
  scout config set embedding.provider gemini
  scout config get vector_store.provider
  scout config list`

const configShortDesc string = "Manage persistent scout configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
