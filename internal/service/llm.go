package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

// historyTurns is how many past question/answer turns are replayed to the
// model on each chat request.
const historyTurns = 3

// sessionTTL is how long an idle chat session survives in Redis.
const sessionTTL = 24 * time.Hour

// drugCategories is the fixed category list the model must choose from when
// classifying a drug. The last entry is the fallback.
var drugCategories = []string{
	"항응고제", "항혈소판제", "고혈압약", "고지혈증약", "당뇨약",
	"항생제", "소염진통제", "항우울제", "수면제", "갑상선약",
	"위장약", "천식약", "면역억제제", "기타",
}

const systemPrompt = `당신은 약물-음식 상호작용 전문 약사 AI입니다.
사용자가 복용 중인 약물과 음식의 상호작용에 대해 질문하면, 제공된 참고 자료를 바탕으로 정확하고 이해하기 쉽게 답변하세요.

답변 규칙:
1. 반드시 제공된 참고 자료에 근거해서 답변하세요. 자료에 없는 내용은 추측하지 마세요.
2. 위험도를 먼저 명확히 알려주세요 (🔴 위험 / 🟠 경고 / 🟡 주의 / 🟢 안전).
3. 상호작용의 이유(메커니즘)를 쉬운 말로 설명하세요.
4. 구체적인 권고사항과 대안 음식을 제시하세요.
5. 참고 자료에 해당 조합이 없으면 "해당 정보가 등록되어 있지 않습니다"라고 말하고, 의사나 약사와 상담을 권하세요.
6. 답변 끝에 "정확한 복약 지도는 의사 또는 약사와 상담하세요"를 덧붙이세요.`

// Message is one turn in a chat-completions conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
}

// ChatResult is the answer to one chat question plus the retrieval that
// grounded it.
type ChatResult struct {
	Response string         `json:"response"`
	Context  string         `json:"context"`
	Sources  []SearchResult `json:"sources"`
}

// LLMService answers drug-food questions with a hosted chat-completions
// model, grounding every answer in retrieved interaction rules and keeping
// per-user conversation history in Redis.
type LLMService struct {
	apiKey       string
	apiURL       string
	model        string
	httpClient   *http.Client
	redis        *redis.Client
	db           *gorm.DB
	interactions *InteractionService
}

// NewLLMService creates the chat service. The API key must be resolved by the
// caller (config reads it from the environment or a secrets file).
func NewLLMService(apiKey, apiURL, model string, redisClient *redis.Client, db *gorm.DB, interactions *InteractionService) (*LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key must be set")
	}
	if apiURL == "" {
		apiURL = "https://api.deepseek.com/v1/chat/completions"
	}
	if model == "" {
		model = "deepseek-chat"
	}

	return &LLMService{
		apiKey:       apiKey,
		apiURL:       apiURL,
		model:        model,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		redis:        redisClient,
		db:           db,
		interactions: interactions,
	}, nil
}

// Chat answers a user question about their registered drugs. The answer is
// grounded in retrieved interaction rules; history is only extended when the
// model call succeeds, so a failed request can be retried cleanly.
func (s *LLMService) Chat(ctx context.Context, userID uuid.UUID, question string) (*ChatResult, error) {
	drugNames, err := s.registeredDrugNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	ragContext, sources, err := s.buildContext(ctx, drugNames, question)
	if err != nil {
		return nil, err
	}

	history, err := s.History(ctx, userID)
	if err != nil {
		log.Printf("failed to load chat history for %s: %v", userID, err)
		history = nil
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{
		Role:    "user",
		Content: fmt.Sprintf("[참고 자료]\n%s\n\n[질문]\n%s", ragContext, question),
	})

	answer, err := s.complete(ctx, chatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	if err := s.appendHistory(ctx, userID, question, answer); err != nil {
		log.Printf("failed to save chat history for %s: %v", userID, err)
	}

	record := models.QueryHistory{
		UserID:       userID,
		QueryText:    question,
		ResponseText: answer,
		RiskSummary:  worstSourceRisk(sources),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Printf("failed to save query history for %s: %v", userID, err)
	}

	return &ChatResult{
		Response: answer,
		Context:  ragContext,
		Sources:  sources,
	}, nil
}

// buildContext retrieves the interaction rules relevant to the question and
// renders them as the reference block the model answers from.
func (s *LLMService) buildContext(ctx context.Context, drugNames []string, question string) (string, []SearchResult, error) {
	var sources []SearchResult
	var err error

	foodName := s.extractFood(ctx, question)

	switch {
	case len(drugNames) > 0 && foodName != "":
		for _, drugName := range drugNames {
			result, lookupErr := s.interactions.SearchByDrugAndFood(ctx, drugName, foodName)
			if lookupErr != nil {
				return "", nil, lookupErr
			}
			if result != nil {
				sources = append(sources, *result)
			}
		}
	case len(drugNames) > 0:
		sources, err = s.interactions.Search(ctx, question, SearchOptions{Drugs: drugNames})
	default:
		sources, err = s.interactions.Search(ctx, question, SearchOptions{})
	}
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	if len(drugNames) > 0 {
		b.WriteString("복용 중인 약물: " + strings.Join(drugNames, ", ") + "\n\n")
	} else {
		b.WriteString("등록된 약물이 없습니다.\n\n")
	}

	if len(sources) == 0 {
		b.WriteString("관련 상호작용 정보가 등록되어 있지 않습니다.")
		return b.String(), sources, nil
	}

	for i, src := range sources {
		rule := src.Interaction
		fmt.Fprintf(&b, "%d. %s %s + %s (위험도: %s)\n", i+1, src.RiskEmoji, rule.DrugName, rule.FoodName, src.RiskLabel)
		if rule.Mechanism != "" {
			fmt.Fprintf(&b, "   메커니즘: %s\n", rule.Mechanism)
		}
		if rule.ClinicalEffect != "" {
			fmt.Fprintf(&b, "   임상적 영향: %s\n", rule.ClinicalEffect)
		}
		if rule.Recommendation != "" {
			fmt.Fprintf(&b, "   권고사항: %s\n", rule.Recommendation)
		}
		if rule.AlternativeFood != "" {
			fmt.Fprintf(&b, "   대안 음식: %s\n", rule.AlternativeFood)
		}
	}
	return b.String(), sources, nil
}

// extractFood finds the first catalog food mentioned in the question.
func (s *LLMService) extractFood(ctx context.Context, question string) string {
	var foods []models.Food
	if err := s.db.WithContext(ctx).Select("name").Find(&foods).Error; err != nil {
		log.Printf("failed to load food catalog: %v", err)
		return ""
	}

	lowered := strings.ToLower(question)
	for _, food := range foods {
		if food.Name != "" && strings.Contains(lowered, strings.ToLower(food.Name)) {
			return food.Name
		}
	}
	return ""
}

// worstSourceRisk is the most severe risk level among the retrieved rules,
// empty when nothing was retrieved.
func worstSourceRisk(sources []SearchResult) string {
	var worst models.RiskLevel
	for _, src := range sources {
		risk := src.Interaction.RiskLevel
		if worst == "" || risk.Priority() < worst.Priority() {
			worst = risk
		}
	}
	return string(worst)
}

func (s *LLMService) registeredDrugNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.UserDrug{}).
		Where("user_id = ?", userID).
		Order("registered_at DESC").
		Pluck("drug_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load registered drugs: %w", err)
	}
	return names, nil
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("chat:session:%s", userID)
}

// History returns the replayable tail of the user's chat session, at most
// historyTurns question/answer pairs. Without Redis there is no session and
// every question is answered statelessly.
func (s *LLMService) History(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	if s.redis == nil {
		return nil, nil
	}

	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat session: %w", err)
	}

	if max := historyTurns * 2; len(messages) > max {
		messages = messages[len(messages)-max:]
	}
	return messages, nil
}

func (s *LLMService) appendHistory(ctx context.Context, userID uuid.UUID, question, answer string) error {
	if s.redis == nil {
		return nil
	}

	messages, err := s.History(ctx, userID)
	if err != nil {
		return err
	}

	messages = append(messages,
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: answer},
	)
	if max := historyTurns * 2; len(messages) > max {
		messages = messages[len(messages)-max:]
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(userID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// QueryLog returns the user's persisted question/answer records, newest
// first. Unlike the Redis session this survives restarts and expiry.
func (s *LLMService) QueryLog(ctx context.Context, userID uuid.UUID, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []models.QueryHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("queried_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load query log: %w", err)
	}
	return records, nil
}

// ClearHistory drops the user's chat session.
func (s *LLMService) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}

	if err := s.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear chat session: %w", err)
	}
	return nil
}

// CategorizeDrug asks the model which category a drug belongs to. The answer
// must come from the fixed list; anything else falls back to 기타.
func (s *LLMService) CategorizeDrug(ctx context.Context, drugName string) (string, error) {
	prompt := fmt.Sprintf(`약물 "%s"은(는) 다음 분류 중 어디에 속합니까?
분류 목록: %s

JSON으로만 응답하세요: {"category": "분류명"}`, drugName, strings.Join(drugCategories, ", "))

	answer, err := s.complete(ctx, chatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: "당신은 약물 분류 전문가입니다. 반드시 주어진 목록의 분류명 하나로만 답하세요."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0,
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return "기타", nil
	}

	category := strings.TrimSpace(parsed.Category)
	for _, known := range drugCategories {
		if category == known {
			return known, nil
		}
	}
	for _, known := range drugCategories {
		if known != "기타" && strings.Contains(category, known) {
			return known, nil
		}
	}
	return "기타", nil
}

// complete sends one chat-completions request and returns the first choice.
func (s *LLMService) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("%w: failed to read error response: %v", ErrLLMUnavailable, readErr)
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrLLMUnavailable, resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrLLMUnavailable, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrLLMUnavailable)
	}
	return result.Choices[0].Message.Content, nil
}
