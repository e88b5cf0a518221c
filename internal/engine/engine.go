// Package engine is the hybrid retrieval core. It owns the corpus, rebuilds the lexical and
// semantic indexes on every Index call, and answers queries with fused, annotated rankings.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"hybridrag/internal/corpus"
	"hybridrag/internal/domain"
	"hybridrag/internal/embedding"
	"hybridrag/internal/highlight"
	"hybridrag/internal/langdetect"
	"hybridrag/internal/lexical"
	"hybridrag/internal/ranking"
)

var (
	// ErrSemanticIndexRequired is returned when WithSemanticIndex is given nil.
	ErrSemanticIndexRequired = errors.New("semantic index required")
	// ErrDetectorRequired is returned when WithDetector is given nil.
	ErrDetectorRequired = errors.New("language detector required")
)

// IndexOutcome describes one Index call.
type IndexOutcome struct {
	Added    int
	Total    int
	Semantic embedding.Outcome
}

// QueryOutcome holds the ranked results of one Query call.
// Results is never nil.
type QueryOutcome struct {
	Results  []domain.QueryResult
	Semantic embedding.Outcome
}

// Engine coordinates the corpus, the BM25 index, the optional semantic index, language
// detection and highlighting. It is safe for concurrent use: Index takes an exclusive lock
// for the append and full rebuild, queries share a read lock.
type Engine struct {
	mu       sync.RWMutex
	store    *corpus.Store
	lexical  *lexical.Index
	semantic embedding.Index
	detector domain.LanguageDetector
	built    uint64
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithSemanticIndex sets the semantic index variant. Default is embedding.Disabled().
func WithSemanticIndex(idx embedding.Index) Option {
	return func(e *Engine) error {
		if idx == nil {
			return ErrSemanticIndexRequired
		}
		e.semantic = idx
		return nil
	}
}

// WithDetector sets the language detector. Default is langdetect.New().
func WithDetector(d domain.LanguageDetector) Option {
	return func(e *Engine) error {
		if d == nil {
			return ErrDetectorRequired
		}
		e.detector = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an empty engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    corpus.NewStore(),
		lexical:  lexical.Build(nil),
		semantic: embedding.Disabled(),
		detector: langdetect.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "engine")
	return e, nil
}

// Index appends documents to the corpus and synchronously rebuilds both indexes from the
// whole corpus. Documents are stored as given; empty strings are kept.
func (e *Engine) Index(ctx context.Context, documents []string) IndexOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := e.store.Append(documents)
	texts := e.store.Texts()
	e.lexical = lexical.Build(lexical.TokenizeAll(texts))
	semantic := e.semantic.Rebuild(ctx, texts)
	e.built = e.store.Generation()

	e.logger.Info("index_complete",
		"added", added,
		"total", len(texts),
		"semantic_enabled", e.semantic.Enabled(),
		"semantic_fallback", semantic.Fallback,
	)
	return IndexOutcome{Added: added, Total: len(texts), Semantic: semantic}
}

// Query ranks every document against text and returns the best topK, each annotated with
// its detected language and matched terms. An empty corpus or topK <= 0 yields no results.
func (e *Engine) Query(ctx context.Context, text string, topK int) QueryOutcome {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := QueryOutcome{Results: []domain.QueryResult{}}
	if e.store.Len() == 0 || topK <= 0 {
		return out
	}

	tokens := lexical.Tokenize(text)
	lexScores := e.lexical.Score(tokens)
	semScores, semantic := e.semantic.Similarities(ctx, text)
	out.Semantic = semantic
	fused := ranking.Fuse(lexScores, semScores)

	for _, idx := range ranking.Rank(fused, topK) {
		doc := e.store.At(idx)
		sem := 0.0
		if idx < len(semScores) {
			sem = semScores[idx]
		}
		out.Results = append(out.Results, domain.QueryResult{
			DocID:         corpus.DocID(idx),
			Text:          doc,
			Score:         fused[idx],
			LexicalScore:  lexScores[idx],
			SemanticScore: sem,
			Language:      e.detector.Detect(doc).LanguageOrUnknown(),
			Highlights:    highlight.Extract(tokens, lexical.Tokenize(doc)),
		})
	}
	return out
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Ready reports whether at least one document is indexed and the snapshots match the corpus.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len() > 0 &&
		e.built == e.store.Generation() &&
		e.lexical.Len() == e.store.Len() &&
		e.semantic.Len() == e.store.Len()
}

// SemanticEnabled reports whether a real encoder backs the semantic index.
func (e *Engine) SemanticEnabled() bool { return e.semantic.Enabled() }
