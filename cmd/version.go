package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spigell/autofiller/cmd.version=... -X ...cmd.commit=...".
var (
	version = "unknown"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if commit == "" {
			fmt.Fprintf(out, "%s %s\n", app, version)
			return
		}
		fmt.Fprintf(out, "%s %s (%s)\n", app, version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
