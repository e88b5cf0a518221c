package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_PicksFrequentSentencesInOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "Retrieval ranks documents. The weather was mild. Hybrid retrieval ranks documents by fused scores. Lunch was late."

	got, err := s.Summarize(text, 2)

	require.NoError(t, err)
	assert.Equal(t, "Retrieval ranks documents. Hybrid retrieval ranks documents by fused scores.", got)
}

func TestSummarize_NoSentencesReturnsTrimmedText(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("  no punctuation here  ", 3)

	require.NoError(t, err)
	assert.Equal(t, "no punctuation here", got)
}

func TestSummarize_FewerSentencesThanRequested(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("Only one sentence.", 0)

	require.NoError(t, err)
	assert.Equal(t, "Only one sentence.", got)
}

func TestSummarize_HandlesApostrophes(t *testing.T) {
	s := NewFrequencySummarizer()

	assert.Equal(t, []string{"engine’s", "index"}, s.contentTokens("The engine’s index"))
}
