// Package lexical implements the term-frequency side of retrieval: whitespace tokenisation
// and an Okapi BM25 index rebuilt from the whole corpus.
package lexical

import (
	"math"
	"strings"
)

const (
	k1 = 1.5
	b  = 0.75
	// epsilon scales the average IDF used as a floor for terms whose raw IDF is negative.
	epsilon = 0.25
)

// Tokenize splits text on whitespace. Tokens keep their case.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// TokenizeAll tokenises every text in order.
func TokenizeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, t := range texts {
		out[i] = Tokenize(t)
	}
	return out
}

// Index is an immutable BM25 snapshot over a tokenised corpus.
type Index struct {
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// Build computes term frequencies, document lengths and IDF for the corpus.
// Cost is linear in the total number of tokens.
func Build(corpus [][]string) *Index {
	idx := &Index{
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		idf:       make(map[string]float64),
	}
	docFreq := make(map[string]int)
	// first-seen order keeps the IDF sum, and so the floor, identical across builds
	var terms []string
	total := 0
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			if tf[tok] == 0 && docFreq[tok] == 0 {
				terms = append(terms, tok)
			}
			tf[tok]++
		}
		for term := range tf {
			docFreq[term]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		total += len(tokens)
	}
	if len(corpus) == 0 {
		return idx
	}
	idx.avgDocLen = float64(total) / float64(len(corpus))

	n := float64(len(corpus))
	idfSum := 0.0
	var negative []string
	for _, term := range terms {
		df := docFreq[term]
		v := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		idx.idf[term] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(docFreq) > 0 {
		floor := epsilon * idfSum / float64(len(docFreq))
		for _, term := range negative {
			idx.idf[term] = floor
		}
	}
	return idx
}

// Len returns the number of documents in the snapshot.
func (x *Index) Len() int { return len(x.docLens) }

// Score returns one BM25 score per document, in corpus order.
// Documents sharing no term with the query score 0. Repeated query tokens count once per occurrence.
func (x *Index) Score(query []string) []float64 {
	scores := make([]float64, len(x.docLens))
	if x.avgDocLen == 0 {
		return scores
	}
	for _, term := range query {
		idf, ok := x.idf[term]
		if !ok {
			continue
		}
		for i, tf := range x.termFreqs {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := k1 * (1 - b + b*float64(x.docLens[i])/x.avgDocLen)
			scores[i] += idf * f * (k1 + 1) / (f + norm)
		}
	}
	return scores
}
