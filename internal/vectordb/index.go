// Package vectordb holds the in-process vector index built from one
// ingestion batch.
package vectordb

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/pdfrag/internal/chunker"
	"github.com/ziadkadry99/pdfrag/internal/embeddings"
	"github.com/ziadkadry99/pdfrag/internal/ingest"
)

// DefaultBatchSize is the number of chunk texts sent per embedding request.
const DefaultBatchSize = 100

// BuildOptions tunes Build.
type BuildOptions struct {
	BatchSize  int
	OnProgress func(done, total int)
}

// Match is one search hit.
type Match struct {
	Chunk      chunker.Chunk
	Similarity float32
}

// Index is a named chromem-go collection holding the chunks of one batch.
// It is immutable once built.
type Index struct {
	name       string
	db         *chromem.DB
	collection *chromem.Collection
}

// IndexingError wraps the embedding failure that aborted a build.
type IndexingError struct {
	Err error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed: %v", e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// Build embeds every chunk and stores it in a fresh collection. On error no
// index is returned, so whatever index the caller already holds stays valid.
func Build(ctx context.Context, name string, chunks []chunker.Chunk, embedder embeddings.Embedder, opts BuildOptions) (*Index, error) {
	if len(chunks) == 0 {
		return nil, &IndexingError{Err: fmt.Errorf("no chunks to index")}
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for start := 0; start < len(chunks); start += batch {
		if err := ctx.Err(); err != nil {
			return nil, &IndexingError{Err: err}
		}
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, &IndexingError{Err: fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)}
		}
		if len(vectors) != len(texts) {
			return nil, &IndexingError{Err: fmt.Errorf("%s returned %d embeddings for %d texts", embedder.Name(), len(vectors), len(texts))}
		}

		for i, c := range chunks[start:end] {
			docs = append(docs, chromem.Document{
				ID:        chunkID(c),
				Content:   c.Text,
				Metadata:  chunkMetadata(c),
				Embedding: vectors[i],
			})
		}
		if opts.OnProgress != nil {
			opts.OnProgress(end, len(chunks))
		}
	}

	db := chromem.NewDB()
	// A new DB per build means the named collection never holds an older batch.
	col, err := db.CreateCollection(name, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, &IndexingError{Err: fmt.Errorf("create collection: %w", err)}
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, &IndexingError{Err: fmt.Errorf("add documents: %w", err)}
	}

	return &Index{name: name, db: db, collection: col}, nil
}

// Name returns the collection name.
func (ix *Index) Name() string { return ix.name }

// Count returns the number of indexed chunks.
func (ix *Index) Count() int { return ix.collection.Count() }

// SimilaritySearch returns up to k chunks nearest to the query embedding,
// most similar first.
func (ix *Index) SimilaritySearch(ctx context.Context, query []float32, k int) ([]Match, error) {
	k = ix.clamp(k)
	if k == 0 {
		return nil, nil
	}
	results, err := ix.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return toMatches(results), nil
}

// Search embeds text with the index's embedder and runs a similarity search.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]Match, error) {
	k = ix.clamp(k)
	if k == 0 {
		return nil, nil
	}
	results, err := ix.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return toMatches(results), nil
}

// chromem-go requires 0 < nResults <= collection size.
func (ix *Index) clamp(k int) int {
	if count := ix.collection.Count(); k > count {
		k = count
	}
	if k < 0 {
		k = 0
	}
	return k
}

func toMatches(results []chromem.Result) []Match {
	matches := make([]Match, len(results))
	for i, r := range results {
		seq, _ := strconv.Atoi(r.Metadata["seq"])
		matches[i] = Match{
			Chunk: chunker.Chunk{
				Text:     r.Content,
				Metadata: ingest.MetadataFromMap(r.Metadata),
				Seq:      seq,
			},
			Similarity: r.Similarity,
		}
	}
	return matches
}

func chunkID(c chunker.Chunk) string {
	return "chunk-" + strconv.Itoa(c.Seq)
}

func chunkMetadata(c chunker.Chunk) map[string]string {
	md := c.Metadata.Map()
	md["seq"] = strconv.Itoa(c.Seq)
	return md
}
