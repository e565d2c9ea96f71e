package testhelpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// SeedInteractions loads a small but realistic slice of the reference
// dataset: one drug with rules across all four risk levels plus a second
// drug to verify filtering.
func SeedInteractions(t *testing.T, db *gorm.DB) []models.Interaction {
	t.Helper()

	interactions := []models.Interaction{
		{
			DrugName:        "와파린",
			DrugIngredient:  "warfarin",
			DrugCategory:    "항응고제",
			FoodName:        "자몽",
			FoodCategory:    "과일",
			RiskLevel:       models.RiskDanger,
			Mechanism:       "CYP3A4 효소 억제로 약물 혈중 농도 상승",
			ClinicalEffect:  "출혈 위험 증가",
			Recommendation:  "자몽 및 자몽 주스 섭취를 피하세요",
			AlternativeFood: "사과, 배",
			Source:          "식품의약품안전처",
		},
		{
			DrugName:       "와파린",
			DrugIngredient: "warfarin",
			DrugCategory:   "항응고제",
			FoodName:       "시금치",
			FoodCategory:   "채소",
			RiskLevel:      models.RiskWarning,
			Mechanism:      "비타민 K가 항응고 효과를 감소",
			ClinicalEffect: "약효 감소, 혈전 위험",
			Recommendation: "비타민 K 섭취량을 일정하게 유지하세요",
			Source:         "식품의약품안전처",
		},
		{
			DrugName:       "와파린",
			DrugIngredient: "warfarin",
			DrugCategory:   "항응고제",
			FoodName:       "녹차",
			FoodCategory:   "음료",
			RiskLevel:      models.RiskCaution,
			Mechanism:      "다량 섭취 시 비타민 K 영향",
			Recommendation: "하루 1-2잔 이내로 제한하세요",
			Source:         "식품의약품안전처",
		},
		{
			DrugName:       "와파린",
			DrugIngredient: "warfarin",
			DrugCategory:   "항응고제",
			FoodName:       "쌀밥",
			FoodCategory:   "곡류",
			RiskLevel:      models.RiskSafe,
			Recommendation: "제한 없이 섭취 가능합니다",
			Source:         "식품의약품안전처",
		},
		{
			DrugName:       "타이레놀",
			DrugIngredient: "acetaminophen",
			DrugCategory:   "소염진통제",
			FoodName:       "술",
			FoodCategory:   "주류",
			RiskLevel:      models.RiskDanger,
			Mechanism:      "알코올이 간독성 대사물 생성을 촉진",
			ClinicalEffect: "급성 간 손상 위험",
			Recommendation: "복용 중 음주를 피하세요",
			Source:         "식품의약품안전처",
		},
	}

	// Embeddings must be set: the zero vector does not round-trip through
	// the sqlite column, which breaks every later read of the table.
	embedder := service.NewEmbeddingService()
	for i := range interactions {
		interactions[i].Document = interactions[i].BuildDocument()
		interactions[i].Embedding = embedder.GenerateEmbedding(interactions[i].Document)
		if err := db.Create(&interactions[i]).Error; err != nil {
			t.Fatalf("failed to seed interaction: %v", err)
		}
	}
	return interactions
}

// SeedFoods loads the food catalog entries matching SeedInteractions.
func SeedFoods(t *testing.T, db *gorm.DB) {
	t.Helper()

	foods := []models.Food{
		{Name: "자몽", Category: "과일"},
		{Name: "시금치", Category: "채소"},
		{Name: "녹차", Category: "음료"},
		{Name: "쌀밥", Category: "곡류"},
		{Name: "술", Category: "주류"},
	}
	for i := range foods {
		if err := db.Create(&foods[i]).Error; err != nil {
			t.Fatalf("failed to seed food: %v", err)
		}
	}
}
