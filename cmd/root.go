// Package cmd wires the postql command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"postql/config"
)

var (
	v       = viper.New()
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "postql",
	Short: "GraphQL API for users and their posts",
	Long: `postql serves a GraphQL endpoint for registering users, logging in and
managing posts. Authenticated operations take the token returned by loginUser
as an argument.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func init() {
	config.SetDefaults(v)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file to load before reading the environment")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
