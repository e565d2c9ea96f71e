package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Interaction is one drug-food interaction rule from the reference dataset.
// Document holds the text that gets embedded for similarity search.
type Interaction struct {
	ID              uuid.UUID       `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DrugName        string          `gorm:"size:100;not null;uniqueIndex:idx_drug_food,priority:1" json:"drug_name"`
	DrugIngredient  string          `gorm:"size:100" json:"drug_ingredient"`
	DrugCategory    string          `gorm:"size:50" json:"drug_category"`
	FoodName        string          `gorm:"size:100;not null;uniqueIndex:idx_drug_food,priority:2" json:"food_name"`
	FoodCategory    string          `gorm:"size:50" json:"food_category"`
	RiskLevel       RiskLevel       `gorm:"size:20;not null;index" json:"risk_level"`
	Mechanism       string          `gorm:"type:text" json:"interaction_mechanism"`
	ClinicalEffect  string          `gorm:"type:text" json:"clinical_effect"`
	Recommendation  string          `gorm:"type:text" json:"recommendation"`
	AlternativeFood string          `gorm:"size:255" json:"alternative_food"`
	Source          string          `gorm:"size:255" json:"source"`
	Document        string          `gorm:"type:text" json:"-"`
	Embedding       pgvector.Vector `gorm:"type:vector(256)" json:"-"`
}

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BuildDocument renders the labelled block that the vector index stores,
// mirroring the layout of the reference CSV rows.
func (i *Interaction) BuildDocument() string {
	return fmt.Sprintf(`약물명: %s
성분명: %s
약물분류: %s
음식명: %s
음식분류: %s
위험도: %s
상호작용 메커니즘: %s
임상적 영향: %s
권고사항: %s
대안 음식: %s
출처: %s`,
		i.DrugName, i.DrugIngredient, i.DrugCategory,
		i.FoodName, i.FoodCategory, i.RiskLevel,
		i.Mechanism, i.ClinicalEffect, i.Recommendation,
		i.AlternativeFood, i.Source)
}
