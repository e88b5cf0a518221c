package embedding

import (
	"context"
	"errors"
	"sync"
)

var errEncoderDown = errors.New("encoder down")

// fakeEncoder maps known texts to fixed vectors and counts calls.
type fakeEncoder struct {
	mu          sync.Mutex
	vectors     map[string][]float64
	failEmbed   bool
	failBatch   bool
	failPrepare bool
	fitted      bool
	prepared    int
	embeds      int
	batched     []string
}

func (f *fakeEncoder) Name() string   { return "fake" }
func (f *fakeEncoder) Dimension() int { return 2 }

func (f *fakeEncoder) CorpusFitted() bool { return f.fitted }

func (f *fakeEncoder) Prepare(context.Context, []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared++
	if f.failPrepare {
		return errEncoderDown
	}
	return nil
}

func (f *fakeEncoder) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds++
	if f.failEmbed {
		return nil, errEncoderDown
	}
	return f.vectors[text], nil
}

func (f *fakeEncoder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batched = append(f.batched, texts...)
	if f.failBatch {
		return nil, errEncoderDown
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}
