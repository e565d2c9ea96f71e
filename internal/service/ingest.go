package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

// IngestService loads the reference CSV datasets into the database and keeps
// the interaction embeddings in sync with the stored documents.
type IngestService struct {
	db       *gorm.DB
	embedder *EmbeddingService
}

func NewIngestService(db *gorm.DB, embedder *EmbeddingService) *IngestService {
	return &IngestService{
		db:       db,
		embedder: embedder,
	}
}

// csvTable reads a CSV file into header-keyed rows. Headers are matched
// case-insensitively and may use either the Korean dataset names or their
// English equivalents.
type csvTable struct {
	rows []map[string]string
}

// headerAliases maps every accepted header spelling to a canonical key.
var headerAliases = map[string]string{
	"약물명":       "drug_name",
	"drug_name": "drug_name",
	"drug":      "drug_name",

	"성분명":        "ingredient",
	"성분":         "ingredient",
	"ingredient": "ingredient",

	"약물분류":          "drug_category",
	"drug_category": "drug_category",

	"음식명":       "food_name",
	"food_name": "food_name",
	"food":      "food_name",

	"음식분류":          "food_category",
	"food_category": "food_category",
	"분류":            "category",
	"category":      "category",

	"위험도":        "risk_level",
	"risk_level": "risk_level",

	"상호작용 메커니즘": "mechanism",
	"상호작용_메커니즘": "mechanism",
	"mechanism":  "mechanism",

	"임상적 영향":          "clinical_effect",
	"임상적_영향":          "clinical_effect",
	"clinical_effect": "clinical_effect",

	"권고사항":           "recommendation",
	"recommendation": "recommendation",

	"대안 음식":            "alternative_food",
	"대안_음식":            "alternative_food",
	"alternative_food": "alternative_food",

	"출처":     "source",
	"source": "source",

	"설명":          "description",
	"description": "description",

	"이름":   "name",
	"name": "name",
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if canonical, ok := headerAliases[strings.ToLower(h)]; ok {
			keys[i] = canonical
		} else {
			keys[i] = strings.ToLower(h)
		}
	}

	table := &csvTable{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		row := make(map[string]string, len(keys))
		for i, v := range record {
			if i < len(keys) {
				row[keys[i]] = strings.TrimSpace(v)
			}
		}
		table.rows = append(table.rows, row)
	}
	return table, nil
}

// LoadDrugs upserts the drug catalog from a CSV file keyed by drug name.
func (s *IngestService) LoadDrugs(ctx context.Context, path string) (int, error) {
	table, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range table.rows {
		name := firstNonEmpty(row["drug_name"], row["name"])
		if name == "" {
			continue
		}

		drug := models.Drug{
			Name:        name,
			Ingredient:  row["ingredient"],
			Category:    firstNonEmpty(row["drug_category"], row["category"]),
			Description: row["description"],
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"ingredient", "category", "description", "updated_at"}),
		}).Create(&drug).Error
		if err != nil {
			return count, fmt.Errorf("failed to upsert drug %q: %w", name, err)
		}
		count++
	}

	log.Printf("loaded %d drugs from %s", count, path)
	return count, nil
}

// LoadFoods upserts the food catalog from a CSV file keyed by food name.
func (s *IngestService) LoadFoods(ctx context.Context, path string) (int, error) {
	table, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range table.rows {
		name := firstNonEmpty(row["food_name"], row["name"])
		if name == "" {
			continue
		}

		food := models.Food{
			Name:        name,
			Category:    firstNonEmpty(row["food_category"], row["category"]),
			Description: row["description"],
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "description", "updated_at"}),
		}).Create(&food).Error
		if err != nil {
			return count, fmt.Errorf("failed to upsert food %q: %w", name, err)
		}
		count++
	}

	log.Printf("loaded %d foods from %s", count, path)
	return count, nil
}

// LoadInteractions upserts interaction rules keyed by (drug, food). Each
// rule's document and embedding are rebuilt from the row so edits to the CSV
// propagate into the vector index. With rebuild set, existing rules are
// dropped first.
func (s *IngestService) LoadInteractions(ctx context.Context, path string, rebuild bool) (int, error) {
	table, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	if rebuild {
		if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Interaction{}).Error; err != nil {
			return 0, fmt.Errorf("failed to clear interactions: %w", err)
		}
	}

	count := 0
	skipped := 0
	for _, row := range table.rows {
		drugName := row["drug_name"]
		foodName := row["food_name"]
		if drugName == "" || foodName == "" {
			skipped++
			continue
		}

		interaction := models.Interaction{
			DrugName:        drugName,
			DrugIngredient:  row["ingredient"],
			DrugCategory:    row["drug_category"],
			FoodName:        foodName,
			FoodCategory:    row["food_category"],
			RiskLevel:       models.NormalizeRiskLevel(row["risk_level"]),
			Mechanism:       row["mechanism"],
			ClinicalEffect:  row["clinical_effect"],
			Recommendation:  row["recommendation"],
			AlternativeFood: row["alternative_food"],
			Source:          row["source"],
		}
		interaction.Document = interaction.BuildDocument()
		interaction.Embedding = s.embedder.GenerateEmbedding(interaction.Document)

		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "drug_name"}, {Name: "food_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"drug_ingredient", "drug_category", "food_category", "risk_level",
				"mechanism", "clinical_effect", "recommendation", "alternative_food",
				"source", "document", "embedding", "updated_at",
			}),
		}).Create(&interaction).Error
		if err != nil {
			return count, fmt.Errorf("failed to upsert interaction %q/%q: %w", drugName, foodName, err)
		}
		count++
	}

	if skipped > 0 {
		log.Printf("skipped %d interaction rows missing drug or food name", skipped)
	}
	log.Printf("loaded %d interactions from %s", count, path)
	return count, nil
}

// RebuildEmbeddings recomputes every interaction's document and embedding.
// Run after changing the document layout or the embedding function.
func (s *IngestService) RebuildEmbeddings(ctx context.Context) (int, error) {
	var interactions []models.Interaction
	if err := s.db.WithContext(ctx).Find(&interactions).Error; err != nil {
		return 0, err
	}

	for i := range interactions {
		interactions[i].Document = interactions[i].BuildDocument()
		interactions[i].Embedding = s.embedder.GenerateEmbedding(interactions[i].Document)

		err := s.db.WithContext(ctx).Model(&interactions[i]).
			Updates(map[string]interface{}{
				"document":  interactions[i].Document,
				"embedding": interactions[i].Embedding,
			}).Error
		if err != nil {
			return i, err
		}
	}
	return len(interactions), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
