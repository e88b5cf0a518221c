// Package embedding provides the optional semantic side of retrieval: a pluggable text
// Encoder and an Index that keeps one vector per corpus document.
package embedding

import "context"

// Encoder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Encoder interface {
	Name() string
	// Prepare fits corpus-dependent state. Corpus-independent encoders treat it as a no-op.
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Outcome reports whether a semantic step succeeded or fell back to zero similarity.
type Outcome struct {
	Fallback bool
	Err      error
}

// OK is the outcome of a step that completed normally.
func OK() Outcome { return Outcome{} }

// Degraded records a recoverable failure that was replaced by zero similarity.
func Degraded(err error) Outcome { return Outcome{Fallback: true, Err: err} }
