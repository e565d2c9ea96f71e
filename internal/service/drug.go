package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

// DrugCategorizer classifies a drug name into one of the known categories.
// The LLM service implements it; passing nil skips auto-categorization.
type DrugCategorizer interface {
	CategorizeDrug(ctx context.Context, drugName string) (string, error)
}

// RegisterDrugInput is the caller-supplied part of a drug registration.
type RegisterDrugInput struct {
	DrugName   string `json:"drug_name" binding:"required"`
	Ingredient string `json:"ingredient"`
	Category   string `json:"category"`
	Dosage     string `json:"dosage"`
	Notes      string `json:"notes"`
}

// DrugService manages the drugs a user has registered as taking.
type DrugService struct {
	db           *gorm.DB
	interactions *InteractionService
	categorizer  DrugCategorizer
}

func NewDrugService(db *gorm.DB, interactions *InteractionService, categorizer DrugCategorizer) *DrugService {
	return &DrugService{
		db:           db,
		interactions: interactions,
		categorizer:  categorizer,
	}
}

// RegisterDrug records that a user takes a drug. Registering the same drug
// name again updates the existing record. Missing ingredient and category
// are filled from the reference catalog, and failing that the category comes
// from the LLM classifier.
func (s *DrugService) RegisterDrug(ctx context.Context, userID uuid.UUID, input RegisterDrugInput) (*models.UserDrug, error) {
	drug := models.UserDrug{
		UserID:     userID,
		DrugName:   input.DrugName,
		Ingredient: input.Ingredient,
		Category:   input.Category,
		Dosage:     input.Dosage,
		Notes:      input.Notes,
	}

	if drug.Ingredient == "" || drug.Category == "" {
		var catalog models.Drug
		err := s.db.WithContext(ctx).Where("name = ?", input.DrugName).First(&catalog).Error
		if err == nil {
			if drug.Ingredient == "" {
				drug.Ingredient = catalog.Ingredient
			}
			if drug.Category == "" {
				drug.Category = catalog.Category
			}
		}
	}

	if drug.Category == "" && s.categorizer != nil {
		category, err := s.categorizer.CategorizeDrug(ctx, input.DrugName)
		if err != nil {
			log.Printf("failed to categorize drug %q: %v", input.DrugName, err)
		} else {
			drug.Category = category
		}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "drug_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ingredient", "category", "dosage", "notes", "updated_at",
		}),
	}).Create(&drug).Error
	if err != nil {
		return nil, err
	}

	var saved models.UserDrug
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND drug_name = ?", userID, input.DrugName).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// RemoveDrug deletes one registered drug by name.
func (s *DrugService) RemoveDrug(ctx context.Context, userID uuid.UUID, drugName string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND drug_name = ?", userID, drugName).
		Delete(&models.UserDrug{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDrugNotFound
	}
	return nil
}

// ListDrugs returns the user's registered drugs, newest first.
func (s *DrugService) ListDrugs(ctx context.Context, userID uuid.UUID) ([]models.UserDrug, error) {
	var drugs []models.UserDrug
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Find(&drugs).Error
	if err != nil {
		return nil, err
	}
	return drugs, nil
}

// DrugNames returns just the names of the user's registered drugs.
func (s *DrugService) DrugNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.UserDrug{}).
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Pluck("drug_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ClearDrugs removes all of the user's registered drugs and reports how many
// were removed.
func (s *DrugService) ClearDrugs(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.UserDrug{})
	return result.RowsAffected, result.Error
}

// VerdictUnknown marks a food with no interaction rule for any registered
// drug. A real risk level always wins over unknown.
const VerdictUnknown = "unknown"

// CheckItem is the per-drug outcome of a food check.
type CheckItem struct {
	DrugName    string        `json:"drug_name"`
	Found       bool          `json:"found"`
	Interaction *SearchResult `json:"interaction,omitempty"`
}

// CheckResult is the fast non-LLM answer to "can I eat this food".
type CheckResult struct {
	FoodName string      `json:"food_name"`
	Verdict  string      `json:"verdict"`
	Emoji    string      `json:"emoji"`
	Label    string      `json:"label"`
	Items    []CheckItem `json:"items"`
}

// CheckFood checks one food against every drug the user has registered. The
// overall verdict is the most severe rule found; unknown only when no rule
// matched any drug.
func (s *DrugService) CheckFood(ctx context.Context, userID uuid.UUID, foodName string) (*CheckResult, error) {
	drugNames, err := s.DrugNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(drugNames) == 0 {
		return nil, ErrNoRegisteredDrugs
	}

	result := &CheckResult{
		FoodName: foodName,
		Verdict:  VerdictUnknown,
	}

	worst := 100
	for _, drugName := range drugNames {
		match, err := s.interactions.SearchByDrugAndFood(ctx, drugName, foodName)
		if err != nil {
			return nil, err
		}

		item := CheckItem{DrugName: drugName}
		if match != nil {
			item.Found = true
			item.Interaction = match

			if p := match.Interaction.RiskLevel.Priority(); p < worst {
				worst = p
				result.Verdict = string(match.Interaction.RiskLevel)
				result.Emoji = match.Interaction.RiskLevel.Emoji()
				result.Label = match.Interaction.RiskLevel.Label()
			}
		}
		result.Items = append(result.Items, item)
	}

	if result.Verdict == VerdictUnknown {
		result.Emoji = "❓"
		result.Label = "알 수 없음"
	}
	return result, nil
}
