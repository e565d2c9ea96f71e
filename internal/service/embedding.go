package service

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the dimension of interaction embeddings. It must match
// the vector(...) column width in the interactions table.
const EmbeddingDim = 256

// EmbeddingService produces deterministic local embeddings. Hosted
// embedding endpoints are metered, so documents are hashed into a fixed
// bag-of-words vector instead; the same text always maps to the same
// vector, which is what the similarity ordering needs.
type EmbeddingService struct{}

func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// GenerateEmbedding hashes the text's tokens into a fixed-width vector and
// L2-normalizes it. Empty text yields the zero vector.
func (s *EmbeddingService) GenerateEmbedding(text string) pgvector.Vector {
	vec := make([]float32, EmbeddingDim)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%EmbeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return pgvector.NewVector(vec)
}

// tokenize lowercases and splits on anything that is not a letter or digit.
// Korean text has no case but passes through unicode.IsLetter unchanged.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
