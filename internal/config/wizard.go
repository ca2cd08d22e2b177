package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pdfrag! Let's configure your PDF question answering.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Model preset.
	presets := Presets()
	labels := make([]string, len(presets))
	for i, p := range presets {
		labels[i] = p.Label
	}
	modelPrompt := promptui.Select{
		Label: "Select chat model",
		Items: labels,
	}
	idx, _, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model.ChatModel = presets[idx].ChatModel
	cfg.Model.EmbeddingModel = presets[idx].EmbeddingModel

	// 2. Chunking.
	size, err := promptInt("Chunk size (characters)", cfg.Vector.ChunkSize, 1)
	if err != nil {
		return nil, fmt.Errorf("chunk size: %w", err)
	}
	cfg.Vector.ChunkSize = size

	overlap, err := promptInt("Chunk overlap (characters)", min(cfg.Vector.ChunkOverlap, size-1), 0)
	if err != nil {
		return nil, fmt.Errorf("chunk overlap: %w", err)
	}
	cfg.Vector.ChunkOverlap = overlap

	// 3. Web UI port.
	port, err := promptInt("Web UI port", cfg.Server.Port, 1)
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port = port

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if os.Getenv(OpenAIKeyName) == "" {
		if _, err := os.Stat(cfg.SecretsFile); err != nil {
			fmt.Printf("\nNote: set %s in your environment or in %s before asking questions.\n", OpenAIKeyName, cfg.SecretsFile)
			fmt.Printf("You can get an API key from: %s\n", OpenAIKeyHelpURL)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// promptInt asks for an integer no smaller than minVal.
func promptInt(label string, def, minVal int) (int, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(def),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("not a number")
			}
			if n < minVal {
				return fmt.Errorf("must be at least %d", minVal)
			}
			return nil
		},
	}
	s, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
