// competitionctl inspects the CompetitionNotify database and recipient
// registry without a running server.
//
// Usage:
//
//	competitionctl processed --db ./competitionnotify.db
//	competitionctl notification <id>
//	competitionctl venues -o json
//	competitionctl registry validate recipients.yml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartyg/competitionnotify/app/cfg"
)

type options struct {
	dbPath    string
	outputFmt string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "competitionctl",
		Short: "Inspect CompetitionNotify state",
		Long: `competitionctl reads the CompetitionNotify database and recipient
registry directly. Only "notification mark-sent" changes stored data.`,
		Version:       cfg.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "./competitionnotify.db", "Path to the SQLite database file")
	rootCmd.PersistentFlags().StringVarP(&opts.outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(processedCmd(opts))
	rootCmd.AddCommand(notificationCmd(opts))
	rootCmd.AddCommand(venuesCmd(opts))
	rootCmd.AddCommand(registryCmd(opts))

	return rootCmd
}
