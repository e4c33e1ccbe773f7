package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comit-io/galaxyapi/internal/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "galaxyapi",
	Short: "GalaxyAPI - CoMIT backend gateway",
	Long: `GalaxyAPI authenticates CoMIT users against Active Directory, builds their
authorization profile from group permissions, and manages component settings.`,
	Version:       version.GetInfo().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "GalaxyAPI %s\n", version.GetInfo())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("GALAXY_CONFIG"),
		"path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
