// Package scoutcmder is the root of the scout command tree.
package scoutcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/scout/cmd/scout/auth"
	checkcmder "github.com/papercomputeco/scout/cmd/scout/check"
	configcmder "github.com/papercomputeco/scout/cmd/scout/config"
	discovercmder "github.com/papercomputeco/scout/cmd/scout/discover"
	memorycmder "github.com/papercomputeco/scout/cmd/scout/memory"
	servecmder "github.com/papercomputeco/scout/cmd/scout/serve"
	versioncmder "github.com/papercomputeco/scout/cmd/version"
)

const scoutLongDesc string = `Scout finds the next fresh topic for a short-form video channel.

It remembers every topic it has used and rejects candidates that are too
close to one of them in embedding space.

  scout discover       Select and commit a fresh topic
  scout check          Check candidates for novelty
  scout memory         Inspect and seed the topic memory
  scout serve          Run the API and MCP server
  scout config         Manage persistent configuration
  scout auth           Store provider API keys`

const scoutShortDesc string = "Scout - topic novelty memory"

func NewScoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scout",
		Short:         scoutShortDesc,
		Long:          scoutLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .scout/ directory")

	cmd.AddCommand(discovercmder.NewDiscoverCmd())
	cmd.AddCommand(checkcmder.NewCheckCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
