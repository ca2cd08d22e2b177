package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ziadkadry99/pdfrag/internal/config"
	"github.com/ziadkadry99/pdfrag/internal/db"
	"github.com/ziadkadry99/pdfrag/internal/embeddings"
	"github.com/ziadkadry99/pdfrag/internal/llm"
	"github.com/ziadkadry99/pdfrag/internal/rag"
	"github.com/ziadkadry99/pdfrag/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pdfrag init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// resolveSecrets loads .env and resolves credentials. A missing OpenAI key is
// fatal: the caller should stop before anything talks to a model.
func resolveSecrets(cfg *config.Config) (*config.Secrets, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	secrets, err := config.ResolveSecrets(cfg.SecretsFile)
	if err != nil {
		var credErr *config.CredentialError
		if errors.As(err, &credErr) {
			fmt.Fprintf(os.Stderr, "%s not found. Set it in your environment, a .env file or %s.\n", credErr.Name, cfg.SecretsFile)
			fmt.Fprintf(os.Stderr, "You can get an API key from: %s\n", credErr.HelpURL)
		}
		return nil, err
	}
	if secrets.Tracing() && verbose {
		fmt.Fprintln(os.Stderr, "Tracing enabled (LANGCHAIN_API_KEY is set)")
	}
	return secrets, nil
}

// newEngine builds one QA pipeline from config. onProgress may be nil.
func newEngine(cfg *config.Config, secrets *config.Secrets, onProgress func(done, total int)) (*rag.Engine, error) {
	embedder := embeddings.NewOpenAIEmbedder(secrets.OpenAIKey, embeddings.OpenAIModel(cfg.Model.EmbeddingModel), cfg.BaseURL)

	provider, err := llm.NewProvider(secrets.OpenAIKey, llm.Options{
		Model:             cfg.Model.ChatModel,
		BaseURL:           cfg.BaseURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	opts := rag.OptionsFromConfig(cfg)
	opts.Trace = secrets.Tracing() || verbose
	opts.OnEmbedProgress = onProgress
	return rag.NewEngine(embedder, provider, opts), nil
}

func engineFactory(cfg *config.Config, secrets *config.Secrets, onProgress func(done, total int)) session.EngineFactory {
	return func() (session.Engine, error) {
		return newEngine(cfg, secrets, onProgress)
	}
}

// openSessions creates the in-memory transcript database and a session
// manager on top of it. The returned func closes the database.
func openSessions(factory session.EngineFactory) (*session.Manager, func(), error) {
	database, err := db.OpenMemory()
	if err != nil {
		return nil, nil, fmt.Errorf("opening transcript database: %w", err)
	}
	return session.NewManager(session.NewStore(database), factory), func() { database.Close() }, nil
}

// startLocalSession opens a single session for the terminal commands.
func startLocalSession(ctx context.Context, factory session.EngineFactory) (*session.Session, func(), error) {
	mgr, closeDB, err := openSessions(factory)
	if err != nil {
		return nil, nil, err
	}
	sess, err := mgr.Create(ctx)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return sess, closeDB, nil
}

func printReport(report *rag.IngestReport) {
	fmt.Fprintf(os.Stderr, "Processed %d file(s): %d page(s), %d chunk(s) in %s\n",
		len(report.Files), report.Documents, report.Chunks, report.Duration.Round(1e6))
	if len(report.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "  Skipped (no extractable text): %v\n", report.Skipped)
	}
	if verbose && report.EstimatedEmbedCostUSD > 0 {
		fmt.Fprintf(os.Stderr, "  Estimated embedding cost: $%.4f\n", report.EstimatedEmbedCostUSD)
	}
}
