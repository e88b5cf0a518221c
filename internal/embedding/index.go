package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hybridrag/internal/vectorstore"
	"hybridrag/internal/vectorstore/memory"
)

// Index holds the semantic snapshot for the corpus. It is selected once at construction:
// Disabled when no encoder is configured, Dense otherwise.
// Callers serialise Rebuild against Similarities.
type Index interface {
	// Enabled reports whether the index contributes real similarities.
	Enabled() bool
	// Rebuild recomputes the snapshot for the entire corpus.
	Rebuild(ctx context.Context, corpus []string) Outcome
	// Similarities returns one score per document of the last rebuild.
	Similarities(ctx context.Context, query string) ([]float64, Outcome)
	// Len is the number of documents in the last rebuild.
	Len() int
}

type disabled struct {
	n int
}

// Disabled returns an Index that scores every document 0.
func Disabled() Index { return &disabled{} }

func (d *disabled) Enabled() bool { return false }

func (d *disabled) Rebuild(_ context.Context, corpus []string) Outcome {
	d.n = len(corpus)
	return OK()
}

func (d *disabled) Similarities(context.Context, string) ([]float64, Outcome) {
	return make([]float64, d.n), OK()
}

func (d *disabled) Len() int { return d.n }

// Dense is an Index backed by an Encoder and a vector storage.
type Dense struct {
	encoder Encoder
	store   vectorstore.Storage
	logger  *slog.Logger
}

// DenseOption configures a Dense index.
type DenseOption func(*Dense)

// WithStorage replaces the default in-memory vector storage.
func WithStorage(s vectorstore.Storage) DenseOption {
	return func(d *Dense) {
		if s != nil {
			d.store = s
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *slog.Logger) DenseOption {
	return func(d *Dense) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDense creates a Dense index over the given encoder.
func NewDense(encoder Encoder, opts ...DenseOption) *Dense {
	d := &Dense{
		encoder: encoder,
		store:   memory.NewStorage(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "embedding-index", "encoder", encoder.Name())
	return d
}

// Enabled always reports true.
func (d *Dense) Enabled() bool { return true }

// Rebuild prepares the encoder on the corpus and encodes every document.
// If encoding fails the snapshot becomes one empty vector per document, so every similarity is 0
// until the next successful rebuild.
func (d *Dense) Rebuild(ctx context.Context, corpus []string) Outcome {
	vectors, err := d.encodeCorpus(ctx, corpus)
	if err == nil {
		err = d.store.Reset(vectors)
	}
	if err != nil {
		d.logger.Warn("semantic_fallback", "stage", "rebuild", "documents", len(corpus), "error", err)
		// Reset with empty vectors cannot fail.
		_ = d.store.Reset(make([][]float64, len(corpus)))
		return Degraded(err)
	}
	d.logger.Debug("semantic_rebuilt", "documents", len(corpus), "dimension", d.store.Dimension())
	return OK()
}

func (d *Dense) encodeCorpus(ctx context.Context, corpus []string) ([][]float64, error) {
	if err := d.encoder.Prepare(ctx, corpus); err != nil {
		return nil, fmt.Errorf("prepare encoder: %w", err)
	}
	vectors := make([][]float64, len(corpus))
	// Blank documents keep an empty vector and score 0 without a round trip to the encoder.
	var idx []int
	var texts []string
	for i, doc := range corpus {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		idx = append(idx, i)
		texts = append(texts, doc)
	}
	if len(texts) == 0 {
		return vectors, nil
	}
	encoded, err := d.encoder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}
	if len(encoded) != len(texts) {
		return nil, fmt.Errorf("encode corpus: got %d vectors for %d documents", len(encoded), len(texts))
	}
	for j, i := range idx {
		vectors[i] = encoded[j]
	}
	return vectors, nil
}

// Similarities encodes the query and scores it against every document.
// A blank query scores 0 everywhere. An encoder failure yields all-zero scores and a degraded outcome.
func (d *Dense) Similarities(ctx context.Context, query string) ([]float64, Outcome) {
	if strings.TrimSpace(query) == "" {
		return make([]float64, d.store.Len()), OK()
	}
	vec, err := d.encoder.Embed(ctx, query)
	if err != nil {
		d.logger.Warn("semantic_fallback", "stage", "query", "error", err)
		return make([]float64, d.store.Len()), Degraded(fmt.Errorf("encode query: %w", err))
	}
	return d.store.Similarities(vec), OK()
}

// Len returns the number of vectors in the snapshot.
func (d *Dense) Len() int { return d.store.Len() }
