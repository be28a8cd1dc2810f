package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the creditsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "creditsim version %s\n", version)
		fmt.Fprintln(w, "A weekly roll-forward simulator for revolving credit portfolios")
		fmt.Fprintln(w, "https://github.com/rustyeddy/creditsim")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
