// Command werewolf-agent runs one game-playing agent against an orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	name       string
	url        string
	provider   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "werewolf-agent",
		Short: "Reactive werewolf game agent",
		Long: `werewolf-agent connects one player to a game orchestrator over a websocket.

It infers its hidden role from the moderator, tracks suspicion of every other
player and answers each prompt through a four-stage deliberation.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "werewolf.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	run := newRunCmd(flags)
	run.Flags().StringVar(&flags.name, "name", "", "override agent.name")
	run.Flags().StringVar(&flags.url, "url", "", "override transport.url")
	run.Flags().StringVar(&flags.provider, "provider", "", "override backend.provider (openai, anthropic, gemini, mock)")

	root.AddCommand(run, newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "werewolf-agent %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
