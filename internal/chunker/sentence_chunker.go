package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"hybridrag/internal/domain"
)

// Strategy names accepted by New.
const (
	StrategySentence = "sentence"
	StrategyNone     = "none"
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SentenceChunker splits text into sentence-based passages with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Split returns the passages of text in order. Text without sentence punctuation becomes a
// single passage; blank text yields none.
func (c *SentenceChunker) Split(text string) []string {
	sentences := sentencePattern.FindAllString(text, -1)
	if tail := strings.TrimSpace(text[lastMatchEnd(text, sentences):]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) == 0 {
		return nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var passages []string
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		passages = append(passages, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return passages
}

// lastMatchEnd finds where the final matched sentence ends so trailing unpunctuated text is kept.
func lastMatchEnd(text string, sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	last := sentences[len(sentences)-1]
	return strings.LastIndex(text, last) + len(last)
}

// Passthrough indexes each file as a single document.
type Passthrough struct{}

func (Passthrough) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
}

// New returns the splitter for the named strategy. An empty name selects StrategyNone.
func New(strategy string, sentencesPerChunk, overlapSentences int) (domain.Splitter, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyNone:
		return Passthrough{}, nil
	case StrategySentence:
		return NewSentenceChunker(sentencesPerChunk, overlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker strategy %q", strategy)
	}
}
