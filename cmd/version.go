package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time:
//
//	go build -ldflags "-X postql/cmd.version=v1.2.3"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the postql version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "postql %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
