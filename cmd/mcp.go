package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
	mcpserver "github.com/ziadkadry99/pdfrag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [pdf-glob]...",
	Short: "Start an MCP server over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing tools to
ingest PDFs, ask questions and search the index. PDFs given as arguments are
processed before the server starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		secrets, err := resolveSecrets(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		sess, closeDB, err := startLocalSession(ctx, engineFactory(cfg, secrets, nil))
		if err != nil {
			return err
		}
		defer closeDB()

		if len(args) > 0 {
			files, err := ingest.ReadFiles(args)
			if err != nil {
				return err
			}
			report, err := sess.Process(ctx, files)
			if err != nil {
				return fmt.Errorf("processing documents: %w", err)
			}
			printReport(report)
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "pdfrag MCP server %s ready on stdio\n", Version)
		return mcpserver.NewServer(sess).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
