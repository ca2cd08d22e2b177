package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Chat with your PDF documents",
	Long: `pdfrag extracts the text of uploaded PDF documents, indexes it with
OpenAI embeddings in an in-memory vector store and answers questions about
it with an OpenAI chat model, citing the passages it used.

Nothing is persisted: every session starts empty and its index and
transcript disappear when it ends.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (traces every pipeline step)")
}
