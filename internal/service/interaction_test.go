package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
	"github.com/yakgung/drugfood-guard/backend/internal/testhelpers"
)

func setupInteractionTest(t *testing.T) *service.InteractionService {
	db := testhelpers.SetupTestDatabase(t)
	testhelpers.SeedInteractions(t, db)
	return service.NewInteractionService(db, service.NewEmbeddingService())
}

func TestSeededInteractionsReadable(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	seeded := testhelpers.SeedInteractions(t, db)

	// every row must scan back cleanly; a row seeded without an embedding
	// breaks all subsequent reads of the table on sqlite
	var rows []models.Interaction
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, len(seeded))
	for _, row := range rows {
		assert.NotEmpty(t, row.Embedding.Slice())
	}
}

func TestInteractionService_Search(t *testing.T) {
	svc := setupInteractionTest(t)
	ctx := context.Background()

	t.Run("orders results by risk severity", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린", service.SearchOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		assert.Equal(t, models.RiskDanger, results[0].Interaction.RiskLevel)
		for i := 1; i < len(results); i++ {
			prev := results[i-1].Interaction.RiskLevel.Priority()
			cur := results[i].Interaction.RiskLevel.Priority()
			assert.LessOrEqual(t, prev, cur)
		}
	})

	t.Run("keyword hit on both names scores highest", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린 자몽", service.SearchOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		assert.Equal(t, "자몽", results[0].Interaction.FoodName)
		assert.Equal(t, 1.0, results[0].Relevance)
		assert.Equal(t, 0.0, results[0].Distance)
	})

	t.Run("deduplicates by drug and food pair", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린 시금치", service.SearchOptions{})
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, r := range results {
			key := r.Interaction.DrugName + "/" + r.Interaction.FoodName
			assert.False(t, seen[key], "duplicate pair %s", key)
			seen[key] = true
		}
	})

	t.Run("respects drug filter", func(t *testing.T) {
		results, err := svc.Search(ctx, "술", service.SearchOptions{
			Drugs: []string{"타이레놀"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, "타이레놀", r.Interaction.DrugName)
		}
	})

	t.Run("respects risk filter", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린", service.SearchOptions{
			Risks: []models.RiskLevel{models.RiskDanger},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, models.RiskDanger, r.Interaction.RiskLevel)
		}
	})

	t.Run("caps results at the limit", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린", service.SearchOptions{Limit: 2})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), 2)
	})

	t.Run("attaches risk emoji and label", func(t *testing.T) {
		results, err := svc.Search(ctx, "와파린 자몽", service.SearchOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "🔴", results[0].RiskEmoji)
		assert.Equal(t, "위험", results[0].RiskLabel)
	})
}

func TestInteractionService_SearchByDrugAndFood(t *testing.T) {
	svc := setupInteractionTest(t)
	ctx := context.Background()

	t.Run("finds exact pair", func(t *testing.T) {
		result, err := svc.SearchByDrugAndFood(ctx, "와파린", "자몽")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "자몽", result.Interaction.FoodName)
		assert.Equal(t, models.RiskDanger, result.Interaction.RiskLevel)
	})

	t.Run("returns nil for unknown pair", func(t *testing.T) {
		result, err := svc.SearchByDrugAndFood(ctx, "와파린", "커피")
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestInteractionService_InteractionsForDrugs(t *testing.T) {
	svc := setupInteractionTest(t)
	ctx := context.Background()

	results, err := svc.InteractionsForDrugs(ctx, []string{"와파린", "타이레놀"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	drugs := map[string]bool{}
	for _, r := range results {
		drugs[r.Interaction.DrugName] = true
	}
	assert.True(t, drugs["와파린"])
	assert.True(t, drugs["타이레놀"])

	// both danger rules come before everything else
	assert.Equal(t, models.RiskDanger, results[0].Interaction.RiskLevel)
	assert.Equal(t, models.RiskDanger, results[1].Interaction.RiskLevel)
}

func TestInteractionService_FoodLists(t *testing.T) {
	svc := setupInteractionTest(t)
	ctx := context.Background()

	t.Run("dangerous foods", func(t *testing.T) {
		results, err := svc.DangerousFoodsForDrug(ctx, "와파린")
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Contains(t,
				[]models.RiskLevel{models.RiskDanger, models.RiskWarning},
				r.Interaction.RiskLevel)
		}
	})

	t.Run("safe foods", func(t *testing.T) {
		results, err := svc.SafeFoodsForDrug(ctx, "와파린")
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, models.RiskSafe, r.Interaction.RiskLevel)
		}
	})
}

func TestInteractionService_Stats(t *testing.T) {
	svc := setupInteractionTest(t)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalInteractions)
	assert.Equal(t, int64(2), stats.Drugs)
	assert.Equal(t, int64(5), stats.Foods)
	assert.Equal(t, int64(2), stats.ByRiskLevel["danger"])
	assert.Equal(t, int64(1), stats.ByRiskLevel["safe"])
}
