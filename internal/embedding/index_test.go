package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled_ScoresZeroForEveryDocument(t *testing.T) {
	idx := Disabled()

	out := idx.Rebuild(context.Background(), []string{"a", "b", "c"})
	scores, q := idx.Similarities(context.Background(), "a")

	assert.False(t, idx.Enabled())
	assert.Equal(t, OK(), out)
	assert.Equal(t, OK(), q)
	assert.Equal(t, []float64{0, 0, 0}, scores)
	assert.Equal(t, 3, idx.Len())
}

func TestDense_SimilaritiesAreCosine(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"east":  {1, 0},
		"north": {0, 3},
		"diag":  {2, 2},
		"blank": {0, 0},
		"query": {1, 0},
	}}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"east", "north", "diag", "blank"})
	require.False(t, out.Fallback)

	scores, q := idx.Similarities(context.Background(), "query")

	require.False(t, q.Fallback)
	require.Len(t, scores, 4)
	assert.InDelta(t, 1.0, scores[0], 1e-12)
	assert.InDelta(t, 0.0, scores[1], 1e-12)
	assert.InDelta(t, 1/1.4142135623730951, scores[2], 1e-12)
	assert.Zero(t, scores[3])
	assert.True(t, idx.Enabled())
	assert.Equal(t, 1, enc.prepared)
}

func TestDense_QueryFailureFallsBackToZero(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"a": {1, 0}, "b": {0, 1}}}
	idx := NewDense(enc)
	idx.Rebuild(context.Background(), []string{"a", "b"})
	enc.failEmbed = true

	scores, q := idx.Similarities(context.Background(), "a")

	assert.True(t, q.Fallback)
	assert.ErrorIs(t, q.Err, errEncoderDown)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestDense_RebuildFailureKeepsLengthWithZeroVectors(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"a": {1, 0}, "b": {0, 1}}, failBatch: true}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"a", "b"})
	scores, q := idx.Similarities(context.Background(), "a")

	assert.True(t, out.Fallback)
	assert.ErrorIs(t, out.Err, errEncoderDown)
	assert.Equal(t, 2, idx.Len())
	assert.False(t, q.Fallback)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestDense_PrepareFailureIsDegraded(t *testing.T) {
	enc := &fakeEncoder{failPrepare: true}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"a"})

	assert.True(t, out.Fallback)
	assert.Equal(t, 1, idx.Len())
	assert.Empty(t, enc.batched)
}

func TestDense_MixedDimensionsAreDegraded(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"a": {1, 0}, "b": {0, 1, 0}}}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"a", "b"})

	assert.True(t, out.Fallback)
	assert.Equal(t, 2, idx.Len())
}

func TestDense_BlankDocumentsSkipEncoder(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"a": {1, 0}}}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"", "a", "  \n"})
	scores, q := idx.Similarities(context.Background(), "a")

	require.False(t, out.Fallback)
	assert.Equal(t, []string{"a"}, enc.batched)
	assert.False(t, q.Fallback)
	assert.Equal(t, []float64{0, 1, 0}, scores)
}

func TestDense_AllBlankCorpus(t *testing.T) {
	enc := &fakeEncoder{}
	idx := NewDense(enc)

	out := idx.Rebuild(context.Background(), []string{"", " "})

	assert.False(t, out.Fallback)
	assert.Empty(t, enc.batched)
	assert.Equal(t, 2, idx.Len())
}

func TestDense_BlankQueryScoresZero(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"a": {1, 0}}}
	idx := NewDense(enc)
	idx.Rebuild(context.Background(), []string{"a"})

	scores, q := idx.Similarities(context.Background(), "   ")

	assert.False(t, q.Fallback)
	assert.Equal(t, []float64{0}, scores)
	assert.Zero(t, enc.embeds)
}
