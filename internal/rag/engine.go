// Package rag implements the retrieval-augmented QA pipeline: ingestion,
// chunking and indexing of uploaded PDFs, and question answering over the
// resulting index.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
	"github.com/ziadkadry99/pdfrag/internal/config"
	"github.com/ziadkadry99/pdfrag/internal/embeddings"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/llm"
	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

// TopK is the number of passages retrieved per question.
const TopK = 3

// NotReadyAnswer is returned for questions asked before any documents were
// processed.
const NotReadyAnswer = "Please upload and process PDF documents first."

// Options configures an Engine.
type Options struct {
	ChatModel      string
	Temperature    float64
	MaxTokens      int
	ChunkSize      int
	ChunkOverlap   int
	Collection     string
	EmbedBatchSize int

	// Trace logs every pipeline step.
	Trace bool

	// Loader overrides the PDF loader. Nil uses ingest.NewPDFLoader.
	Loader ingest.Loader

	// OnEmbedProgress is called after each embedding batch during ingestion.
	OnEmbedProgress func(done, total int)
}

// OptionsFromConfig maps the model and vector settings onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ChatModel:      cfg.Model.ChatModel,
		Temperature:    cfg.Model.Temperature,
		MaxTokens:      cfg.Model.MaxTokens,
		ChunkSize:      cfg.Vector.ChunkSize,
		ChunkOverlap:   cfg.Vector.ChunkOverlap,
		Collection:     cfg.Vector.CollectionName,
		EmbedBatchSize: cfg.Vector.EmbedBatchSize,
	}
}

// Answer is the result of one question.
type Answer struct {
	Text    string
	Sources []chunker.Chunk

	// Err is set when Text is an error message rather than a model answer.
	Err error

	InputTokens      int
	OutputTokens     int
	EstimatedCostUSD float64
}

// IngestReport summarizes a successful ingestion.
type IngestReport struct {
	Files     []string
	Skipped   []string
	Documents int
	Chunks    int
	Duration  time.Duration

	EstimatedEmbedCostUSD float64
}

// Engine is the per-session pipeline state. It is ready once an ingestion
// has succeeded.
type Engine struct {
	embedder embeddings.Embedder
	provider llm.Provider
	loader   ingest.Loader
	opts     Options

	mu    sync.RWMutex
	index *vectordb.Index
}

// NewEngine creates an engine with no index.
func NewEngine(embedder embeddings.Embedder, provider llm.Provider, opts Options) *Engine {
	loader := opts.Loader
	if loader == nil {
		loader = ingest.NewPDFLoader()
	}
	if opts.Collection == "" {
		opts.Collection = "pdf_documents"
	}
	return &Engine{
		embedder: embedder,
		provider: provider,
		loader:   loader,
		opts:     opts,
	}
}

// Ready reports whether questions can be answered from an index.
func (e *Engine) Ready() bool {
	return e.Index() != nil
}

// Index returns the current index, or nil before the first ingestion.
func (e *Engine) Index() *vectordb.Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

// Ingest loads, chunks and indexes files. The current index is replaced only
// when every step succeeds.
func (e *Engine) Ingest(ctx context.Context, files []ingest.UploadedFile) (*IngestReport, error) {
	start := time.Now()

	res, err := ingest.Ingest(ctx, files, e.loader)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.Split(res.Documents, e.opts.ChunkSize, e.opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	e.tracef("split %d page(s) into %d chunk(s)", len(res.Documents), len(chunks))

	ix, err := vectordb.Build(ctx, e.opts.Collection, chunks, e.embedder, vectordb.BuildOptions{
		BatchSize:  e.opts.EmbedBatchSize,
		OnProgress: e.opts.OnEmbedProgress,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.index = ix
	e.mu.Unlock()

	var tokens int
	for _, c := range chunks {
		tokens += llm.EstimateTokens(c.Text)
	}

	report := &IngestReport{
		Files:                 res.Accepted,
		Skipped:               res.Skipped,
		Documents:             len(res.Documents),
		Chunks:                len(chunks),
		Duration:              time.Since(start),
		EstimatedEmbedCostUSD: llm.EstimateCost(e.embedder.Name(), tokens, 0),
	}
	log.Printf("rag: indexed %d chunk(s) from %d page(s) of %d file(s) in %s",
		report.Chunks, report.Documents, len(report.Files), report.Duration.Round(time.Millisecond))
	return report, nil
}

// Ask answers question from the current index. It never returns a Go error:
// service failures come back as an error answer with Err set.
func (e *Engine) Ask(ctx context.Context, question string) Answer {
	ix := e.Index()
	if ix == nil {
		return Answer{Text: NotReadyAnswer}
	}

	matches, err := e.retrieve(ctx, ix, question, TopK)
	if err != nil {
		return errorAnswer(err)
	}

	prompt := buildPrompt(question, matches)
	e.tracef("prompt has %d chars from %d passage(s)", len(prompt), len(matches))

	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.opts.ChatModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		return errorAnswer(&ServiceError{Op: "chat completion", Err: err})
	}
	e.tracef("%s answered in %s (%d in / %d out tokens)",
		e.provider.Name(), time.Since(start).Round(time.Millisecond), resp.InputTokens, resp.OutputTokens)

	return Answer{
		Text:             strings.TrimSpace(resp.Content),
		Sources:          vectordb.Chunks(matches),
		InputTokens:      resp.InputTokens,
		OutputTokens:     resp.OutputTokens,
		EstimatedCostUSD: llm.EstimateCost(e.opts.ChatModel, resp.InputTokens, resp.OutputTokens),
	}
}

// Search returns the k passages nearest to query without calling the chat
// model.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]vectordb.Match, error) {
	ix := e.Index()
	if ix == nil {
		return nil, ErrNotReady
	}
	return e.retrieve(ctx, ix, query, k)
}

func (e *Engine) retrieve(ctx context.Context, ix *vectordb.Index, query string, k int) ([]vectordb.Match, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &ServiceError{Op: "embedding question", Err: err}
	}
	if len(vectors) == 0 {
		return nil, &ServiceError{Op: "embedding question", Err: fmt.Errorf("%s returned no embedding", e.embedder.Name())}
	}

	matches, err := ix.SimilaritySearch(ctx, vectors[0], k)
	if err != nil {
		return nil, &ServiceError{Op: "similarity search", Err: err}
	}
	for _, m := range matches {
		e.tracef("hit %s (similarity %.3f)", m.Chunk.Metadata, m.Similarity)
	}
	return matches, nil
}

func (e *Engine) tracef(format string, args ...interface{}) {
	if e.opts.Trace {
		log.Printf("rag trace: "+format, args...)
	}
}

func errorAnswer(err error) Answer {
	return Answer{
		Text: "Error processing question: " + err.Error(),
		Err:  err,
	}
}
