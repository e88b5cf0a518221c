package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_EmbedBeforePrepare(t *testing.T) {
	e := NewEncoder()

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotPrepared)

	_, err = e.EmbedBatch(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestEncoder_VocabularyExcludesStopwords(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Prepare(context.Background(), []string{"The cat sat", "the dog ran"}))

	// cat, dog, ran, sat
	assert.Equal(t, 4, e.Dimension())
	assert.Equal(t, "tfidf", e.Name())
}

func TestEncoder_VectorsAreUnitLength(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Prepare(context.Background(), []string{"cats chase mice", "dogs chase cats"}))

	vecs, err := e.EmbedBatch(context.Background(), []string{"cats chase mice", "dogs chase cats"})
	require.NoError(t, err)

	for _, v := range vecs {
		sum := 0.0
		for _, x := range v {
			sum += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-12)
	}
}

func TestEncoder_UnknownTextIsZeroVector(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Prepare(context.Background(), []string{"alpha beta"}))

	v, err := e.Embed(context.Background(), "gamma the")

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v)
}

func TestEncoder_EmptyCorpusIsNotAnError(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Prepare(context.Background(), []string{"", "   "}))

	v, err := e.Embed(context.Background(), "anything")

	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, 0, e.Dimension())
}

func TestEncoder_LowercasesTokens(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Prepare(context.Background(), []string{"Paris museum", "Berlin wall"}))

	a, err := e.Embed(context.Background(), "PARIS")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "paris")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, make([]float64, len(a)), a)
}

func TestEncoder_IsCorpusFitted(t *testing.T) {
	assert.True(t, NewEncoder().CorpusFitted())
}
