package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/progress"
)

var (
	askQuestion string
	askJSON     bool
)

type askSource struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
}

type askOutput struct {
	Question         string      `json:"question"`
	Answer           string      `json:"answer"`
	Error            bool        `json:"error,omitempty"`
	Sources          []askSource `json:"sources"`
	InputTokens      int         `json:"input_tokens"`
	OutputTokens     int         `json:"output_tokens"`
	EstimatedCostUSD float64     `json:"estimated_cost_usd"`
}

var askCmd = &cobra.Command{
	Use:   "ask <pdf-glob>...",
	Short: "Answer a single question about a set of PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askQuestion == "" {
			return fmt.Errorf("--question is required")
		}

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

		var onProgress func(done, total int)
		if !askJSON {
			onProgress = progress.Callback(progress.NewReporter())
		}
		engine, err := newEngine(cfg, secrets, onProgress)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		report, err := engine.Ingest(ctx, files)
		if err != nil {
			return fmt.Errorf("processing documents: %w", err)
		}
		if !askJSON {
			printReport(report)
		}

		answer := engine.Ask(ctx, askQuestion)

		if askJSON {
			out := askOutput{
				Question:         askQuestion,
				Answer:           answer.Text,
				Error:            answer.Err != nil,
				Sources:          []askSource{},
				InputTokens:      answer.InputTokens,
				OutputTokens:     answer.OutputTokens,
				EstimatedCostUSD: answer.EstimatedCostUSD,
			}
			for _, src := range answer.Sources {
				out.Sources = append(out.Sources, askSource{
					Source:  src.Metadata.Source,
					Page:    src.Metadata.Page,
					Excerpt: src.Text,
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("\n%s\n", answer.Text)
		if len(answer.Sources) > 0 {
			fmt.Println("\nSources:")
			for i, src := range answer.Sources {
				fmt.Printf("  %d. %s\n", i+1, src.Metadata)
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "\nTokens: %d in / %d out (est. $%.4f)\n",
				answer.InputTokens, answer.OutputTokens, answer.EstimatedCostUSD)
		}
		if answer.Err != nil {
			return answer.Err
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}
