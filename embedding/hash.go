package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/teilomillet/ecoprompt/complexity"
)

const DefaultHashDimensions = 256

// HashProvider is an offline embedder: a signed feature-hashing bag of words,
// L2-normalised. Texts sharing words land close together; it has no notion of
// synonyms, so it is a stand-in for demos and tests rather than a semantic model.
type HashProvider struct {
	dimensions int
}

func NewHashProvider(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashProvider{dimensions: dimensions}
}

func (p *HashProvider) Name() string    { return "hash" }
func (p *HashProvider) Model() string   { return "fnv-bow-" + strconv.Itoa(p.dimensions) }
func (p *HashProvider) Dimensions() int { return p.dimensions }

func (p *HashProvider) Encode(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dimensions)
	for _, word := range complexity.Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dimensions))
		if (sum>>63)&1 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
