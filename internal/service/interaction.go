package service

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

// DefaultTopK is the number of interaction rules returned by a search.
const DefaultTopK = 5

// SearchOptions narrows an interaction search.
type SearchOptions struct {
	// Drugs restricts results to these drug names
	Drugs []string
	// Food restricts results to food names containing this string
	Food string
	// Risks restricts results to these risk levels
	Risks []models.RiskLevel
	// Limit caps the result count; 0 means DefaultTopK
	Limit int
}

// SearchResult is one retrieved interaction rule with retrieval scores.
type SearchResult struct {
	Interaction models.Interaction `json:"interaction"`
	Distance    float64            `json:"distance"`
	Relevance   float64            `json:"relevance_score"`
	RiskEmoji   string             `json:"risk_emoji"`
	RiskLabel   string             `json:"risk_label"`
}

// InteractionService retrieves drug-food interaction rules. Retrieval is
// hybrid: exact keyword hits on drug/food names are scored first and the
// vector index only fills in when keyword matches run short.
type InteractionService struct {
	db       *gorm.DB
	embedder *EmbeddingService
}

func NewInteractionService(db *gorm.DB, embedder *EmbeddingService) *InteractionService {
	return &InteractionService{
		db:       db,
		embedder: embedder,
	}
}

// Search runs the hybrid retrieval for a free-text query. Results are
// de-duplicated by (drug, food) and ordered by risk severity first, then
// by retrieval distance.
func (s *InteractionService) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultTopK
	}

	keyword, err := s.keywordSearch(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if len(keyword) >= limit {
		sortResults(keyword)
		return keyword[:limit], nil
	}

	vector, err := s.vectorSearch(ctx, query, opts, limit*2)
	if err != nil {
		return nil, err
	}

	// Keyword hits win on duplicates; they carry the better score.
	seen := make(map[string]bool)
	combined := make([]SearchResult, 0, len(keyword)+len(vector))
	for _, r := range append(keyword, vector...) {
		key := r.Interaction.DrugName + "\x00" + r.Interaction.FoodName
		if seen[key] {
			continue
		}
		seen[key] = true
		combined = append(combined, r)
	}

	sortResults(combined)
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

// keywordSearch scores query terms against drug and food names. A term
// hitting either name is worth 10 points; 20 points is a full match.
func (s *InteractionService) keywordSearch(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	var rows []models.Interaction
	if err := s.filtered(ctx, opts).Find(&rows).Error; err != nil {
		return nil, err
	}

	terms := tokenize(query)
	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		drugName := strings.ToLower(row.DrugName)
		foodName := strings.ToLower(row.FoodName)

		score := 0
		for _, term := range terms {
			if strings.Contains(drugName, term) {
				score += 10
			}
			if strings.Contains(foodName, term) {
				score += 10
			}
		}
		if score == 0 {
			continue
		}

		relevance := float64(score) / 20
		results = append(results, newResult(row, 1-relevance, relevance))
	}
	return results, nil
}

// vectorSearch orders by embedding distance on postgres and falls back to
// LIKE matching over the stored document on sqlite.
func (s *InteractionService) vectorSearch(ctx context.Context, query string, opts SearchOptions, limit int) ([]SearchResult, error) {
	if s.db.Dialector.Name() == "postgres" {
		vec := s.embedder.GenerateEmbedding(query)

		var rows []struct {
			models.Interaction
			Distance float64
		}
		err := s.filtered(ctx, opts).
			Select("*, embedding <-> ? AS distance", vec).
			Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
			}).
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}

		results := make([]SearchResult, 0, len(rows))
		for _, row := range rows {
			relevance := 1 - row.Distance
			if relevance < 0 {
				relevance = 0
			}
			results = append(results, newResult(row.Interaction, row.Distance, relevance))
		}
		return results, nil
	}

	// sqlite: no vector index, match query terms against the document text.
	q := s.filtered(ctx, opts)
	terms := tokenize(query)
	for _, term := range terms {
		like := "%" + term + "%"
		q = q.Where(
			"LOWER(document) LIKE ? OR LOWER(drug_name) LIKE ? OR LOWER(food_name) LIKE ?",
			like, like, like,
		)
	}

	var rows []models.Interaction
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, newResult(row, 0.5, 0.5))
	}
	return results, nil
}

func (s *InteractionService) filtered(ctx context.Context, opts SearchOptions) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Interaction{})
	if len(opts.Drugs) > 0 {
		q = q.Where("drug_name IN ?", opts.Drugs)
	}
	if opts.Food != "" {
		q = q.Where("LOWER(food_name) LIKE ?", "%"+strings.ToLower(opts.Food)+"%")
	}
	if len(opts.Risks) > 0 {
		q = q.Where("risk_level IN ?", opts.Risks)
	}
	return q
}

// SearchByDrugAndFood finds the rule for a specific drug-food pair. Exact
// food-name matches are preferred over substring matches.
func (s *InteractionService) SearchByDrugAndFood(ctx context.Context, drugName, foodName string) (*SearchResult, error) {
	results, err := s.Search(ctx, drugName+" "+foodName, SearchOptions{
		Drugs: []string{drugName},
		Food:  foodName,
		Limit: DefaultTopK,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	want := strings.ToLower(foodName)
	for i := range results {
		if strings.ToLower(results[i].Interaction.FoodName) == want {
			return &results[i], nil
		}
	}
	return &results[0], nil
}

// InteractionsForDrugs returns the union of interactions for several drugs,
// de-duplicated and ordered by risk severity.
func (s *InteractionService) InteractionsForDrugs(ctx context.Context, drugNames []string, risks []models.RiskLevel) ([]SearchResult, error) {
	seen := make(map[string]bool)
	var all []SearchResult

	for _, drugName := range drugNames {
		results, err := s.Search(ctx, drugName, SearchOptions{
			Drugs: []string{drugName},
			Risks: risks,
			Limit: 20,
		})
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			key := r.Interaction.DrugName + "\x00" + r.Interaction.FoodName
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, r)
		}
	}

	sortResults(all)
	return all, nil
}

// DangerousFoodsForDrug lists the danger/warning foods for a drug.
func (s *InteractionService) DangerousFoodsForDrug(ctx context.Context, drugName string) ([]SearchResult, error) {
	return s.Search(ctx, drugName+" 위험 금기", SearchOptions{
		Drugs: []string{drugName},
		Risks: []models.RiskLevel{models.RiskDanger, models.RiskWarning},
		Limit: 10,
	})
}

// SafeFoodsForDrug lists the foods marked safe for a drug.
func (s *InteractionService) SafeFoodsForDrug(ctx context.Context, drugName string) ([]SearchResult, error) {
	return s.Search(ctx, drugName+" 안전", SearchOptions{
		Drugs: []string{drugName},
		Risks: []models.RiskLevel{models.RiskSafe},
		Limit: 10,
	})
}

// Stats summarizes the loaded reference data.
type Stats struct {
	TotalInteractions int64            `json:"total_interactions"`
	Drugs             int64            `json:"drugs"`
	Foods             int64            `json:"foods"`
	ByRiskLevel       map[string]int64 `json:"by_risk_level"`
}

func (s *InteractionService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByRiskLevel: make(map[string]int64)}

	if err := s.db.WithContext(ctx).Model(&models.Interaction{}).Count(&stats.TotalInteractions).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Interaction{}).Distinct("drug_name").Count(&stats.Drugs).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Interaction{}).Distinct("food_name").Count(&stats.Foods).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		RiskLevel string
		Count     int64
	}
	err := s.db.WithContext(ctx).Model(&models.Interaction{}).
		Select("risk_level, COUNT(*) AS count").
		Group("risk_level").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.ByRiskLevel[c.RiskLevel] = c.Count
	}

	return stats, nil
}

func newResult(i models.Interaction, distance, relevance float64) SearchResult {
	return SearchResult{
		Interaction: i,
		Distance:    distance,
		Relevance:   relevance,
		RiskEmoji:   i.RiskLevel.Emoji(),
		RiskLabel:   i.RiskLevel.Label(),
	}
}

// sortResults orders by risk severity, then by distance so closer matches
// within the same severity come first.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := results[i].Interaction.RiskLevel.Priority(), results[j].Interaction.RiskLevel.Priority()
		if pi != pj {
			return pi < pj
		}
		return results[i].Distance < results[j].Distance
	})
}
