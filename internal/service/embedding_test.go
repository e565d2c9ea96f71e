package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmbedding(t *testing.T) {
	svc := NewEmbeddingService()

	t.Run("dimension is fixed", func(t *testing.T) {
		vec := svc.GenerateEmbedding("와파린 자몽 상호작용")
		assert.Len(t, vec.Slice(), EmbeddingDim)
	})

	t.Run("deterministic", func(t *testing.T) {
		a := svc.GenerateEmbedding("와파린 자몽")
		b := svc.GenerateEmbedding("와파린 자몽")
		assert.Equal(t, a.Slice(), b.Slice())
	})

	t.Run("unit norm", func(t *testing.T) {
		vec := svc.GenerateEmbedding("타이레놀 술 간독성")

		var norm float64
		for _, v := range vec.Slice() {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, norm, 1e-5)
	})

	t.Run("empty text yields zero vector", func(t *testing.T) {
		vec := svc.GenerateEmbedding("")
		for _, v := range vec.Slice() {
			require.Zero(t, v)
		}
	})

	t.Run("different texts differ", func(t *testing.T) {
		a := svc.GenerateEmbedding("와파린 자몽")
		b := svc.GenerateEmbedding("타이레놀 술")
		assert.NotEqual(t, a.Slice(), b.Slice())
	})
}

func TestTokenize(t *testing.T) {
	t.Run("splits on punctuation and lowercases", func(t *testing.T) {
		tokens := tokenize("Warfarin, 자몽(grapefruit)!")
		assert.Equal(t, []string{"warfarin", "자몽", "grapefruit"}, tokens)
	})

	t.Run("keeps digits", func(t *testing.T) {
		tokens := tokenize("비타민 K1 5mg")
		assert.Equal(t, []string{"비타민", "k1", "5mg"}, tokens)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, tokenize("  ,.! "))
	})
}
