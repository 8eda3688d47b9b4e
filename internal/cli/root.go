package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tizensign",
		Short: "Sign and repack Tizen application packages without Tizen Studio",
		Long: `Tizensign rebuilds Tizen application packages and embeds the
author and distributor XML signatures required for installation.

Supported package types:
  - Web widgets (.wgt, config.xml manifest)
  - Native packages (.tpk, tizen-manifest.xml manifest)`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewSignCmd())
	rootCmd.AddCommand(NewPackCmd())
	rootCmd.AddCommand(NewCertCmd())

	return rootCmd
}
