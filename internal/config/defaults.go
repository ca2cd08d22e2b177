package config

// ModelPreset pairs a chat model with the embedding model offered alongside it
// by the init wizard.
type ModelPreset struct {
	ChatModel      string
	EmbeddingModel string
	Label          string
}

// modelPresets lists the choices offered by the init wizard, cheapest first.
var modelPresets = []ModelPreset{
	{ChatModel: "gpt-3.5-turbo", EmbeddingModel: "text-embedding-3-small", Label: "gpt-3.5-turbo - fast & cheap"},
	{ChatModel: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small", Label: "gpt-4o-mini  - balanced"},
	{ChatModel: "gpt-4o", EmbeddingModel: "text-embedding-3-large", Label: "gpt-4o       - highest quality"},
}

const (
	DefaultConfigFile  = ".pdfrag.yml"
	DefaultSecretsFile = ".pdfrag/secrets.yml"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			ChatModel:      "gpt-3.5-turbo",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.1,
			MaxTokens:      1000,
		},
		Vector: VectorConfig{
			ChunkSize:      1000,
			ChunkOverlap:   200,
			CollectionName: "pdf_documents",
			EmbedBatchSize: 100,
		},
		Server: ServerConfig{
			Port:               8501,
			MaxUploadMB:        200,
			SessionIdleMinutes: 60,
		},
		SecretsFile: DefaultSecretsFile,
	}
}

// Presets returns the wizard's model presets.
func Presets() []ModelPreset {
	out := make([]ModelPreset, len(modelPresets))
	copy(out, modelPresets)
	return out
}
