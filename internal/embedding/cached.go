package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of vectors kept by a CachedEncoder when no size is given.
const DefaultCacheSize = 1000

// CorpusFitted is implemented by encoders whose vector space depends on the corpus passed
// to Prepare. Encoders that do not implement it are treated as corpus-independent.
type CorpusFitted interface {
	CorpusFitted() bool
}

// CachedEncoder wraps an Encoder with an LRU cache of computed vectors.
// The cache is purged on Prepare only when the wrapped encoder is corpus-fitted.
type CachedEncoder struct {
	inner Encoder
	cache *lru.Cache[string, []float64]
}

// NewCachedEncoder wraps inner with a cache holding up to size vectors.
func NewCachedEncoder(inner Encoder, size int) *CachedEncoder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float64](size)
	return &CachedEncoder{inner: inner, cache: cache}
}

func (c *CachedEncoder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Name() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Name returns the wrapped encoder's name.
func (c *CachedEncoder) Name() string { return c.inner.Name() }

// Dimension returns the wrapped encoder's dimension.
func (c *CachedEncoder) Dimension() int { return c.inner.Dimension() }

// Prepare prepares the wrapped encoder, purging the cache first if its vectors are about to change.
func (c *CachedEncoder) Prepare(ctx context.Context, corpus []string) error {
	if fitted, ok := c.inner.(CorpusFitted); ok && fitted.CorpusFitted() {
		c.cache.Purge()
	}
	return c.inner.Prepare(ctx, corpus)
}

// Embed returns a cached vector when available, otherwise computes and caches it.
func (c *CachedEncoder) Embed(ctx context.Context, text string) ([]float64, error) {
	k := c.key(text)
	if v, ok := c.cache.Get(k); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(k, v)
	return v, nil
}

// EmbedBatch serves cached texts from the cache and batches the rest through the wrapped encoder.
func (c *CachedEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if v, ok := c.cache.Get(c.key(t)); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	computed, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		if j >= len(computed) {
			break
		}
		out[i] = computed[j]
		c.cache.Add(c.key(texts[i]), computed[j])
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (c *CachedEncoder) Len() int { return c.cache.Len() }
