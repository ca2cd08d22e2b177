package config

// Config is the top-level pdfrag configuration, corresponding to .pdfrag.yml.
type Config struct {
	Model             ModelConfig  `yaml:"model" koanf:"model"`
	Vector            VectorConfig `yaml:"vector" koanf:"vector"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
	BaseURL           string       `yaml:"base_url" koanf:"base_url"`
	SecretsFile       string       `yaml:"secrets_file" koanf:"secrets_file"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// ModelConfig selects the hosted chat and embedding models.
type ModelConfig struct {
	ChatModel      string  `yaml:"chat_model" koanf:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model" koanf:"embedding_model"`
	Temperature    float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" koanf:"max_tokens"`
}

// VectorConfig controls chunking and the vector collection.
type VectorConfig struct {
	ChunkSize      int    `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	CollectionName string `yaml:"collection_name" koanf:"collection_name"`
	EmbedBatchSize int    `yaml:"embed_batch_size" koanf:"embed_batch_size"`
}

// ServerConfig holds web UI settings.
type ServerConfig struct {
	Port        int  `yaml:"port" koanf:"port"`
	AllowAll    bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadMB int  `yaml:"max_upload_mb" koanf:"max_upload_mb"`

	// SessionIdleMinutes ends browser sessions after this much inactivity.
	// Zero keeps them until the page closes.
	SessionIdleMinutes int `yaml:"session_idle_minutes" koanf:"session_idle_minutes"`
}
