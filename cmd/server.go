package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/server"
	"github.com/ziadkadry99/pdfrag/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the web UI",
	Long:  `Starts the browser UI: upload PDFs, process them into an index and chat about them. Every browser tab gets its own session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		secrets, err := resolveSecrets(cfg)
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		mgr, closeDB, err := openSessions(engineFactory(cfg, secrets, nil))
		if err != nil {
			return err
		}
		defer closeDB()

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: cfg.Server.AllowAll,
		})
		web.New(mgr, web.Options{
			MaxUploadBytes:  cfg.MaxUploadBytes(),
			AllowAllOrigins: cfg.Server.AllowAll,
		}).RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if idle := cfg.SessionIdleTimeout(); idle > 0 {
			go mgr.Reap(ctx, idle, time.Minute)
		}

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "pdfrag server %s starting on http://localhost:%d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Chat model: %s\n", cfg.Model.ChatModel)
		fmt.Fprintf(os.Stderr, "  Embedding model: %s\n", cfg.Model.EmbeddingModel)

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8501, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
