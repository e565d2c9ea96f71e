package service_test

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

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestService_LoadInteractions(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewIngestService(db, service.NewEmbeddingService())
	ctx := context.Background()

	csv := `약물명,성분명,약물분류,음식명,음식분류,위험도,상호작용 메커니즘,임상적 영향,권고사항,대안 음식,출처
와파린,warfarin,항응고제,자몽,과일,danger,CYP3A4 억제,출혈 위험 증가,섭취 금지,사과,식약처
와파린,warfarin,항응고제,시금치,채소,warning,비타민 K 길항,약효 감소,섭취량 유지,,식약처
타이레놀,acetaminophen,소염진통제,술,주류,이상한값,,,,,
,,,빈약물행,,danger,,,,,`

	t.Run("loads rows and normalizes risk levels", func(t *testing.T) {
		count, err := svc.LoadInteractions(ctx, writeCSV(t, "interactions.csv", csv), false)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		var tylenol models.Interaction
		require.NoError(t, db.Where("drug_name = ? AND food_name = ?", "타이레놀", "술").First(&tylenol).Error)
		assert.Equal(t, models.RiskCaution, tylenol.RiskLevel)

		// fresh struct: reusing tylenol would carry its primary key into the WHERE clause
		var warfarin models.Interaction
		require.NoError(t, db.Where("drug_name = ? AND food_name = ?", "와파린", "자몽").First(&warfarin).Error)
		assert.Equal(t, models.RiskDanger, warfarin.RiskLevel)
		assert.Contains(t, warfarin.Document, "약물명: 와파린")
		assert.Contains(t, warfarin.Document, "음식명: 자몽")
	})

	t.Run("reloading upserts instead of duplicating", func(t *testing.T) {
		updated := `약물명,음식명,위험도,권고사항
와파린,자몽,warning,소량은 괜찮습니다`
		count, err := svc.LoadInteractions(ctx, writeCSV(t, "interactions2.csv", updated), false)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		var total int64
		require.NoError(t, db.Model(&models.Interaction{}).Count(&total).Error)
		assert.Equal(t, int64(3), total)

		var row models.Interaction
		require.NoError(t, db.Where("drug_name = ? AND food_name = ?", "와파린", "자몽").First(&row).Error)
		assert.Equal(t, models.RiskWarning, row.RiskLevel)
		assert.Equal(t, "소량은 괜찮습니다", row.Recommendation)
	})

	t.Run("rebuild drops existing rows first", func(t *testing.T) {
		only := `약물명,음식명,위험도
아스피린,커피,caution`
		count, err := svc.LoadInteractions(ctx, writeCSV(t, "interactions3.csv", only), true)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		var total int64
		require.NoError(t, db.Model(&models.Interaction{}).Count(&total).Error)
		assert.Equal(t, int64(1), total)
	})
}

func TestIngestService_LoadCatalogs(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewIngestService(db, service.NewEmbeddingService())
	ctx := context.Background()

	t.Run("drugs", func(t *testing.T) {
		csv := `약물명,성분명,분류,설명
와파린,warfarin,항응고제,혈전 예방
타이레놀,acetaminophen,소염진통제,해열 진통`
		count, err := svc.LoadDrugs(ctx, writeCSV(t, "drugs.csv", csv))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		var drug models.Drug
		require.NoError(t, db.Where("name = ?", "와파린").First(&drug).Error)
		assert.Equal(t, "warfarin", drug.Ingredient)
		assert.Equal(t, "항응고제", drug.Category)
	})

	t.Run("foods with english headers", func(t *testing.T) {
		csv := `name,category,description
자몽,과일,감귤류 과일
시금치,채소,녹색 잎채소`
		count, err := svc.LoadFoods(ctx, writeCSV(t, "foods.csv", csv))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		var food models.Food
		require.NoError(t, db.Where("name = ?", "자몽").First(&food).Error)
		assert.Equal(t, "과일", food.Category)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.LoadDrugs(ctx, filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}
