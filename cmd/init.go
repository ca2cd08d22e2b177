package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pdfrag config file with an interactive wizard",
	Long:  `Runs an interactive wizard to pick the chat model, retrieval settings and server port, and writes them to .pdfrag.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
