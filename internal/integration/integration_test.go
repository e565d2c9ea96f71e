package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
	"github.com/yakgung/drugfood-guard/backend/internal/testhelpers"
)

// Exercises the real postgres + pgvector path: CSV ingest, embedding
// storage and distance-ordered retrieval. Needs docker.
func TestVectorSearchOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db := testhelpers.SetupPostgresDatabase(t)
	ctx := context.Background()

	embedder := service.NewEmbeddingService()
	ingest := service.NewIngestService(db, embedder)
	search := service.NewInteractionService(db, embedder)

	csv := `약물명,성분명,약물분류,음식명,음식분류,위험도,상호작용 메커니즘,임상적 영향,권고사항,대안 음식,출처
와파린,warfarin,항응고제,자몽,과일,danger,CYP3A4 효소 억제,출혈 위험 증가,섭취 금지,사과,식약처
와파린,warfarin,항응고제,시금치,채소,warning,비타민 K 길항,약효 감소,섭취량 일정 유지,,식약처
타이레놀,acetaminophen,소염진통제,술,주류,danger,간독성 대사물 촉진,급성 간 손상,음주 금지,,식약처
메트포르민,metformin,당뇨약,흰쌀밥,곡류,caution,혈당 급상승,혈당 조절 저하,현미로 대체 권장,현미밥,식약처`

	path := filepath.Join(t.TempDir(), "interactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	count, err := ingest.LoadInteractions(ctx, path, false)
	require.NoError(t, err)
	require.Equal(t, 4, count)

	t.Run("embeddings are persisted", func(t *testing.T) {
		var row models.Interaction
		require.NoError(t, db.Where("drug_name = ? AND food_name = ?", "와파린", "자몽").First(&row).Error)
		assert.Len(t, row.Embedding.Slice(), service.EmbeddingDim)
	})

	t.Run("vector supplement finds rules without keyword hits", func(t *testing.T) {
		// no drug or food name in the query, so the keyword stage scores
		// nothing and retrieval must come from the vector index
		results, err := search.Search(ctx, "간독성 음주", service.SearchOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		names := make([]string, 0, len(results))
		for _, r := range results {
			names = append(names, r.Interaction.DrugName+"/"+r.Interaction.FoodName)
		}
		assert.Contains(t, names, "타이레놀/술")
	})

	t.Run("risk ordering holds across retrieval stages", func(t *testing.T) {
		results, err := search.Search(ctx, "와파린 상호작용", service.SearchOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t,
				results[i-1].Interaction.RiskLevel.Priority(),
				results[i].Interaction.RiskLevel.Priority())
		}
	})

	t.Run("reingest updates in place", func(t *testing.T) {
		updated := `약물명,음식명,위험도,권고사항
와파린,자몽,warning,소량은 괜찮습니다`
		path := filepath.Join(t.TempDir(), "update.csv")
		require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

		_, err := ingest.LoadInteractions(ctx, path, false)
		require.NoError(t, err)

		var total int64
		require.NoError(t, db.Model(&models.Interaction{}).Count(&total).Error)
		assert.Equal(t, int64(4), total)

		var row models.Interaction
		require.NoError(t, db.Where("drug_name = ? AND food_name = ?", "와파린", "자몽").First(&row).Error)
		assert.Equal(t, models.RiskWarning, row.RiskLevel)
	})
}
