package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/credentials"
	"github.com/papercomputeco/scout/pkg/dotdir"
	"github.com/papercomputeco/scout/pkg/logger"
)

// Resolved is the effective configuration of one command invocation.
type Resolved struct {
	Viper  *viper.Viper
	Config *config.Config

	// Dir is the resolved .scout/ directory.
	Dir   string
	Debug bool
}

// Resolve loads API keys (environment, then .env, then credentials.toml) and
// config.toml for cmd, then binds the given registry flags so the precedence
// is flag > SCOUT_* env > file > default.
func Resolve(cmd *cobra.Command, flagKeys ...string) (*Resolved, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, err
	}

	if err := config.LoadDotEnv(dir); err != nil {
		return nil, err
	}

	creds, err := credentials.NewManager(dir)
	if err != nil {
		return nil, err
	}
	if _, err := creds.InjectEnv(); err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	v, err := config.InitViper(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return &Resolved{
		Viper:  v,
		Config: config.FromViper(v),
		Dir:    dir,
		Debug:  debug,
	}, nil
}

// CLILogger writes to stderr so stdout stays machine readable, colorized
// when stderr is a terminal.
func CLILogger(debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(cliui.IsTerminal(os.Stderr)),
		logger.WithWriter(os.Stderr),
	)
}
