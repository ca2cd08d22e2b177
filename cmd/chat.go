package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/progress"
	"github.com/ziadkadry99/pdfrag/internal/session"
)

var chatShowSources bool

var chatCmd = &cobra.Command{
	Use:   "chat <pdf-glob>...",
	Short: "Process PDFs and chat about them in the terminal",
	Long: `Processes the given PDF files (glob patterns and directories are expanded)
and starts an interactive question loop.

Commands inside the loop:
  :sources   toggle printing the passages behind each answer
  :clear     clear the transcript
  :history   print the transcript
  :quit      exit`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		secrets, err := resolveSecrets(cfg)
		if err != nil {
			return err
		}

		files, err := ingest.ReadFiles(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		reporter := progress.NewReporter()
		sess, closeDB, err := startLocalSession(ctx, engineFactory(cfg, secrets, progress.Callback(reporter)))
		if err != nil {
			return err
		}
		defer closeDB()

		fmt.Fprintf(os.Stderr, "Processing %d PDF file(s)...\n", len(files))
		report, err := sess.Process(ctx, files)
		if err != nil {
			return fmt.Errorf("processing documents: %w", err)
		}
		printReport(report)
		fmt.Fprintln(os.Stderr, "Ask a question about your documents (:quit to exit).")

		showSources := chatShowSources
		for {
			prompt := promptui.Prompt{Label: "Question"}
			input, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return nil
				}
				return err
			}

			switch strings.TrimSpace(input) {
			case "":
				continue
			case ":quit", ":exit":
				return nil
			case ":sources":
				showSources = !showSources
				fmt.Printf("Sources %s\n", onOff(showSources))
				continue
			case ":clear":
				if err := sess.Clear(ctx); err != nil {
					return err
				}
				fmt.Println("Transcript cleared.")
				continue
			case ":history":
				turns, err := sess.Transcript(ctx)
				if err != nil {
					return err
				}
				printTranscript(turns)
				continue
			}

			turn, err := sess.Ask(ctx, input)
			if err != nil {
				return err
			}
			printTurn(turn, showSources)
		}
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowSources, "sources", false, "print the passages behind each answer")
	rootCmd.AddCommand(chatCmd)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printTurn(turn *session.ChatTurn, showSources bool) {
	fmt.Printf("\n%s\n\n", turn.Content)
	if !showSources || len(turn.Sources) == 0 {
		return
	}
	fmt.Println("PDF Sources:")
	for i, src := range turn.Sources {
		fmt.Printf("  Source %d (%s)\n", i+1, src.Metadata)
		fmt.Printf("    %s\n", session.Excerpt(src.Text))
	}
	fmt.Println()
}

func printTranscript(turns []session.ChatTurn) {
	if len(turns) == 0 {
		fmt.Println("Transcript is empty.")
		return
	}
	for _, t := range turns {
		fmt.Printf("[%s] %s\n", t.Role, t.Content)
	}
}
